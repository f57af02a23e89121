package wallet

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/asn1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/Layr-Labs/unisigner-go/pkg/address"
	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/messages"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testKey struct {
	key        *ecdsa.PrivateKey
	priv       *btcec.PrivateKey
	compressed []byte
}

func newTestKey(t *testing.T) *testKey {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	priv, _ := btcec.PrivKeyFromBytes(crypto.FromECDSA(key))
	return &testKey{key: key, priv: priv, compressed: crypto.CompressPubkey(&key.PublicKey)}
}

func (k *testKey) cosmosAddress(t *testing.T, prefix string) string {
	addr, err := address.FromPubKey(prefix, k.compressed, false)
	require.NoError(t, err)
	return addr
}

func (k *testKey) ethAddress() string {
	return crypto.PubkeyToAddress(k.key.PublicKey).Hex()
}

// signSha256 returns the 64-byte r||s signature over sha256(msg)
func (k *testKey) signSha256(t *testing.T, msg []byte) []byte {
	hash := sha256.Sum256(msg)
	sig, err := crypto.Sign(hash[:], k.key)
	require.NoError(t, err)
	return sig[:64]
}

func verifySha256(pubKey []byte, msg []byte, sig []byte) bool {
	hash := sha256.Sum256(msg)
	return crypto.VerifySignature(pubKey, hash[:], sig[:64])
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func setupTestFactory(t *testing.T, env *StaticEnvironment) *Factory {
	l, _ := zap.NewDevelopment()
	f, err := NewFactory(env, messages.NewRegistry(), l)
	require.NoError(t, err)
	return f
}

func testTransaction(chainID string, signer string, msgs ...types.Message) *types.Transaction {
	return &types.Transaction{
		ChainID:       chainID,
		SignerAddress: signer,
		Messages:      msgs,
		Fee:           types.Fee{Amount: []types.Coin{{Denom: "uatom", Amount: "500"}}, Gas: "200000"},
		Memo:          "test",
		SignerData:    types.SignerData{AccountNumber: 7, Sequence: 3, ChainID: chainID},
	}
}

func sendMsg(from string) types.Message {
	return types.Message{
		TypeURL: messages.TypeURLMsgSend,
		Value: &messages.MsgSend{
			FromAddress: from,
			ToAddress:   from,
			Amount:      []types.Coin{{Denom: "uatom", Amount: "1"}},
		},
	}
}

func executeMsg(sender string) types.Message {
	return types.Message{
		TypeURL: messages.TypeURLMsgExecuteContract,
		Value: &messages.MsgExecuteContract{
			Sender:   sender,
			Contract: sender,
			Msg:      []byte(`{"claim":{}}`),
		},
	}
}

// fakeExtension is an offline signer extension holding a single key
type fakeExtension struct {
	key      *testKey
	prefix   string
	enabled  []string
	direct   int
	aminoN   int
	enableFn func(chainID string) error
	// return (nil, nil) from the sign calls
	noResponse bool
}

func (e *fakeExtension) Enable(ctx context.Context, chainID string) error {
	e.enabled = append(e.enabled, chainID)
	if e.enableFn != nil {
		return e.enableFn(chainID)
	}
	return nil
}

func (e *fakeExtension) GetAccounts(ctx context.Context, chainID string) ([]types.Account, error) {
	addr, err := address.FromPubKey(e.prefix, e.key.compressed, false)
	if err != nil {
		return nil, err
	}
	return []types.Account{{Address: addr, Algo: types.AlgoSecp256k1, PubKey: e.key.compressed}}, nil
}

func (e *fakeExtension) SignDirect(ctx context.Context, chainID string, signer string, doc *codec.SignDoc) (*DirectSignResponse, error) {
	e.direct++
	if e.noResponse {
		return nil, nil
	}
	hash := sha256.Sum256(doc.Marshal())
	sig, err := crypto.Sign(hash[:], e.key.key)
	if err != nil {
		return nil, err
	}
	return &DirectSignResponse{Signed: doc, Signature: sig[:64]}, nil
}

func (e *fakeExtension) SignAmino(ctx context.Context, chainID string, signer string, doc *amino.StdSignDoc) (*AminoSignResponse, error) {
	e.aminoN++
	if e.noResponse {
		return nil, nil
	}
	b, err := amino.SerializeSignDoc(doc)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(b)
	sig, err := crypto.Sign(hash[:], e.key.key)
	if err != nil {
		return nil, err
	}
	return &AminoSignResponse{Signed: doc, Signature: sig[:64]}, nil
}

// fakeLedger emulates the Cosmos app behind a transport
type fakeLedger struct {
	mu        sync.Mutex
	key       *testKey
	appName   string
	reject    bool
	opened    int
	closed    int
	exchanges int
	signing   []byte
	active    bool
}

func (l *fakeLedger) Open(ctx context.Context, kind string) (ILedgerTransport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		return nil, fmt.Errorf("transport already open")
	}
	l.active = true
	l.opened++
	return l, nil
}

func (l *fakeLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = false
	l.closed++
	return nil
}

func withSW(data []byte, sw uint16) []byte {
	return append(append([]byte(nil), data...), byte(sw>>8), byte(sw))
}

func (l *fakeLedger) Exchange(ctx context.Context, apdu []byte) ([]byte, error) {
	l.exchanges++
	cla, ins, p1 := apdu[0], apdu[1], apdu[2]
	data := apdu[5:]

	switch {
	case cla == ledgerCLADashboard && ins == ledgerINSAppInfo:
		resp := []byte{1, byte(len(l.appName))}
		resp = append(resp, l.appName...)
		resp = append(resp, 5)
		resp = append(resp, "2.3.4"...)
		return withSW(resp, swOK), nil
	case cla == ledgerCLA && ins == ledgerINSGetAddress:
		hrpLen := int(data[0])
		hrp := string(data[1 : 1+hrpLen])
		addr, err := address.FromPubKey(hrp, l.key.compressed, false)
		if err != nil {
			return nil, err
		}
		return withSW(append(append([]byte(nil), l.key.compressed...), addr...), swOK), nil
	case cla == ledgerCLA && ins == ledgerINSSign:
		switch p1 {
		case ledgerPayloadInit:
			l.signing = nil
			return withSW(nil, swOK), nil
		case ledgerPayloadAdd:
			l.signing = append(l.signing, data...)
			return withSW(nil, swOK), nil
		case ledgerPayloadLast:
			l.signing = append(l.signing, data...)
			if l.reject {
				return withSW(nil, swUserRejected), nil
			}
			hash := sha256.Sum256(l.signing)
			return withSW(btcecdsa.Sign(l.key.priv, hash[:]).Serialize(), swOK), nil
		}
	}
	return withSW(nil, 0x6e00), nil
}

// fakeEthereumProvider signs like an Ethereum browser wallet
type fakeEthereumProvider struct {
	key         *testKey
	calls       map[string]int
	typedHashes [][]byte
}

func newFakeEthereumProvider(key *testKey) *fakeEthereumProvider {
	return &fakeEthereumProvider{key: key, calls: map[string]int{}}
}

func (p *fakeEthereumProvider) sign(hash []byte) (json.RawMessage, error) {
	sig, err := crypto.Sign(hash, p.key.key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return json.Marshal(hexutil.Encode(sig))
}

func (p *fakeEthereumProvider) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	p.calls[method]++
	switch method {
	case methodRequestAccounts:
		return json.Marshal([]string{p.key.ethAddress()})
	case methodPersonalSign:
		msg := params[0].(string)
		return p.sign(accounts.TextHash([]byte(msg)))
	case methodSignTypedDataV4:
		var td apitypes.TypedData
		if err := json.Unmarshal([]byte(params[1].(string)), &td); err != nil {
			return nil, err
		}
		hash, _, err := apitypes.TypedDataAndHash(td)
		if err != nil {
			return nil, err
		}
		p.typedHashes = append(p.typedHashes, hash)
		return p.sign(hash)
	}
	return nil, fmt.Errorf("unsupported method %s", method)
}

// fakeSnap is a cosmos snap holding one key
type fakeSnap struct {
	key        *testKey
	installed  bool
	connected  int
	err        error
	noResponse bool
}

func (s *fakeSnap) GetSnap(ctx context.Context) (bool, error) {
	return s.installed, s.err
}

func (s *fakeSnap) ConnectSnap(ctx context.Context) error {
	s.connected++
	s.installed = true
	return nil
}

func (s *fakeSnap) GetKey(ctx context.Context, chainID string) (*types.Account, error) {
	addr, err := address.FromPubKey("cosmos", s.key.compressed, false)
	if err != nil {
		return nil, err
	}
	return &types.Account{Address: addr, Algo: types.AlgoSecp256k1, PubKey: s.key.compressed}, nil
}

func (s *fakeSnap) SignDirect(ctx context.Context, chainID string, signer string, doc *codec.SignDoc) (*DirectSignResponse, error) {
	if s.noResponse {
		return nil, nil
	}
	hash := sha256.Sum256(doc.Marshal())
	sig, err := crypto.Sign(hash[:], s.key.key)
	if err != nil {
		return nil, err
	}
	return &DirectSignResponse{Signed: doc, Signature: sig[:64]}, nil
}

// fakeBitcoinExtension signs messages the way bitcoin wallets do
type fakeBitcoinExtension struct {
	key      *testKey
	hrp      string
	messages []string
}

func (b *fakeBitcoinExtension) Connect(ctx context.Context) error {
	return nil
}

func (b *fakeBitcoinExtension) GetAccounts(ctx context.Context) ([]string, error) {
	addr, err := address.FromPubKey("cosmos", b.key.compressed, false)
	if err != nil {
		return nil, err
	}
	d, err := address.Decode(addr)
	if err != nil {
		return nil, err
	}
	segwit, err := segwitAddress(b.hrp, d.Payload)
	if err != nil {
		return nil, err
	}
	return []string{segwit}, nil
}

func (b *fakeBitcoinExtension) GetPublicKey(ctx context.Context) (string, error) {
	return hex.EncodeToString(b.key.compressed), nil
}

func (b *fakeBitcoinExtension) SignMessage(ctx context.Context, message string, kind string) (string, error) {
	b.messages = append(b.messages, message)
	sig := btcecdsa.SignCompact(b.key.priv, bitcoinMessageHash(message), true)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// segwitAddress encodes a version 0 witness program
func segwitAddress(hrp string, program []byte) (string, error) {
	conv, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, append([]byte{0}, conv...))
}

func bitcoinMessageHash(message string) []byte {
	var buf []byte
	magic := "Bitcoin Signed Message:\n"
	buf = append(buf, byte(len(magic)))
	buf = append(buf, magic...)
	buf = appendVarInt(buf, uint64(len(message)))
	buf = append(buf, message...)
	first := sha256.Sum256(buf)
	second := sha256.Sum256(first[:])
	return second[:]
}

func appendVarInt(b []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(b, byte(v))
	case v <= 0xffff:
		return append(b, 0xfd, byte(v), byte(v>>8))
	default:
		return append(b, 0xfe, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
}

// MockIKMSClient is a mock of IKMSClient
type MockIKMSClient struct {
	mock.Mock
}

func NewMockIKMSClient(t *testing.T) *MockIKMSClient {
	m := &MockIKMSClient{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIKMSClient) GetPublicKeyWithContext(ctx aws.Context, input *kms.GetPublicKeyInput, opts ...request.Option) (*kms.GetPublicKeyOutput, error) {
	ret := m.Called(ctx, input)
	out, _ := ret.Get(0).(*kms.GetPublicKeyOutput)
	return out, ret.Error(1)
}

func (m *MockIKMSClient) SignWithContext(ctx aws.Context, input *kms.SignInput, opts ...request.Option) (*kms.SignOutput, error) {
	ret := m.Called(ctx, input)
	if fn, ok := ret.Get(0).(func(*kms.SignInput) (*kms.SignOutput, error)); ok {
		return fn(input)
	}
	out, _ := ret.Get(0).(*kms.SignOutput)
	return out, ret.Error(1)
}

func kmsPublicKeyDER(t *testing.T, k *testKey) []byte {
	uncompressed := crypto.FromECDSAPub(&k.key.PublicKey)
	der, err := asn1.Marshal(asn1EcPublicKey{
		EcPublicKeyInfo: asn1EcPublicKeyInfo{
			Algorithm:  asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1},
			Parameters: asn1.ObjectIdentifier{1, 3, 132, 0, 10},
		},
		PublicKey: asn1.BitString{Bytes: uncompressed, BitLength: 8 * len(uncompressed)},
	})
	require.NoError(t, err)
	return der
}
