package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Layr-Labs/unisigner-go/pkg/address"
	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/messages"
	"github.com/Layr-Labs/unisigner-go/pkg/metrics"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/Layr-Labs/unisigner-go/pkg/wallet"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubExtension is an offline signer holding one in-memory key
type stubExtension struct {
	t   *testing.T
	key []byte
}

func (s *stubExtension) Enable(ctx context.Context, chainID string) error { return nil }

func (s *stubExtension) GetAccounts(ctx context.Context, chainID string) ([]types.Account, error) {
	priv, err := crypto.ToECDSA(s.key)
	require.NoError(s.t, err)
	pub := crypto.CompressPubkey(&priv.PublicKey)
	addr, err := address.FromPubKey("cosmos", pub, false)
	require.NoError(s.t, err)
	return []types.Account{{Address: addr, Algo: types.AlgoSecp256k1, PubKey: pub}}, nil
}

func (s *stubExtension) sign(msg []byte) []byte {
	priv, err := crypto.ToECDSA(s.key)
	require.NoError(s.t, err)
	hash := sha256.Sum256(msg)
	sig, err := crypto.Sign(hash[:], priv)
	require.NoError(s.t, err)
	return sig[:64]
}

func (s *stubExtension) SignDirect(ctx context.Context, chainID string, signer string, doc *codec.SignDoc) (*wallet.DirectSignResponse, error) {
	return &wallet.DirectSignResponse{Signed: doc, Signature: s.sign(doc.Marshal())}, nil
}

func (s *stubExtension) SignAmino(ctx context.Context, chainID string, signer string, doc *amino.StdSignDoc) (*wallet.AminoSignResponse, error) {
	b, err := amino.SerializeSignDoc(doc)
	if err != nil {
		return nil, err
	}
	return &wallet.AminoSignResponse{Signed: doc, Signature: s.sign(b)}, nil
}

// failingWallet fails every call
type failingWallet struct {
	calls int
}

func (f *failingWallet) Name() wallet.WalletName { return wallet.WalletNameLeap }
func (f *failingWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	return nil, types.ErrUserRejected
}
func (f *failingWallet) SupportCoinType(ctx context.Context, coinType string) (bool, error) {
	return true, nil
}
func (f *failingWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error) {
	f.calls++
	return nil, types.ErrUserRejected
}

func setupTestOrchestrator(t *testing.T) (*Orchestrator, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	l, _ := zap.NewDevelopment()
	o, err := NewOrchestrator(nil, messages.NewRegistry(), metrics.NewMetrics(reg), l)
	require.NoError(t, err)
	return o, reg
}

func setupTestKeplr(t *testing.T) (wallet.IWallet, string) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	ext := &stubExtension{t: t, key: crypto.FromECDSA(key)}
	f, err := wallet.NewFactory(&wallet.StaticEnvironment{KeplrExtension: ext}, messages.NewRegistry(), zap.NewNop())
	require.NoError(t, err)
	w, err := f.CreateWallet(wallet.WalletNameKeplr, &wallet.WalletArgument{ChainID: "cosmoshub-4"})
	require.NoError(t, err)
	accts, err := ext.GetAccounts(context.Background(), "cosmoshub-4")
	require.NoError(t, err)
	return w, accts[0].Address
}

func testTransaction(signer string) *types.Transaction {
	return &types.Transaction{
		ChainID:       "cosmoshub-4",
		SignerAddress: signer,
		Messages: []types.Message{{
			TypeURL: messages.TypeURLMsgSend,
			Value: &messages.MsgSend{
				FromAddress: signer,
				ToAddress:   signer,
				Amount:      []types.Coin{{Denom: "uatom", Amount: "1000"}},
			},
		}},
		Fee:        types.Fee{Amount: []types.Coin{{Denom: "uatom", Amount: "500"}}, Gas: "200000"},
		Memo:       "test",
		SignerData: types.SignerData{AccountNumber: 7, Sequence: 3, ChainID: "cosmoshub-4"},
	}
}

type nodeStub struct {
	server   *httptest.Server
	requests []map[string]string
}

func setupTestNode(t *testing.T, path string, status int, body string) *nodeStub {
	stub := &nodeStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		stub.requests = append(stub.requests, req)
		if r.URL.Path != path {
			w.WriteHeader(http.StatusNotImplemented)
			_, _ = w.Write([]byte(`{"code":12,"message":"not implemented"}`))
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func TestOrchestrator_Sign(t *testing.T) {
	o, reg := setupTestOrchestrator(t)
	w, signer := setupTestKeplr(t)

	signed, err := o.Sign(context.Background(), w, testTransaction(signer))
	require.NoError(t, err)

	auth, err := codec.DecodeAuthInfo(signed.AuthInfoBytes)
	require.NoError(t, err)
	require.Len(t, auth.SignerInfos, 1)
	assert.Equal(t, uint64(3), auth.SignerInfos[0].Sequence)
	assert.Equal(t, uint64(200000), auth.Fee.GasLimit)
	assert.Equal(t, []types.Coin{{Denom: "uatom", Amount: "500"}}, auth.Fee.Amount)

	_, memo, err := messages.NewRegistry().DecodeTxBody(signed.BodyBytes)
	require.NoError(t, err)
	assert.Equal(t, "test", memo)

	count, err := testutil.GatherAndCount(reg, "unisigner_sign_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOrchestrator_Sign_Errors(t *testing.T) {
	o, _ := setupTestOrchestrator(t)
	_, signer := setupTestKeplr(t)

	t.Run("invalid transaction never reaches the wallet", func(t *testing.T) {
		w := &failingWallet{}
		tx := testTransaction(signer)
		tx.Messages = nil
		_, err := o.Sign(context.Background(), w, tx)
		assert.Error(t, err)
		assert.Equal(t, 0, w.calls)

		tx = testTransaction(signer)
		tx.SignerData.ChainID = "osmosis-1"
		_, err = o.Sign(context.Background(), w, tx)
		assert.Error(t, err)
		assert.Equal(t, 0, w.calls)
	})

	t.Run("backend errors propagate verbatim", func(t *testing.T) {
		w := &failingWallet{}
		signed, err := o.Sign(context.Background(), w, testTransaction(signer))
		assert.ErrorIs(t, err, types.ErrUserRejected)
		assert.Nil(t, signed)
	})

	t.Run("nil wallet", func(t *testing.T) {
		_, err := o.Sign(context.Background(), nil, testTransaction(signer))
		assert.Error(t, err)
	})
}

func TestOrchestrator_Simulate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		o, _ := setupTestOrchestrator(t)
		node := setupTestNode(t, "/cosmos/tx/v1beta1/simulate", http.StatusOK, `{"gas_info":{"gas_wanted":"0","gas_used":"81234"}}`)

		gas, err := o.Simulate(context.Background(), node.server.URL, testTransaction("cosmos1signer"))
		require.NoError(t, err)
		assert.Equal(t, uint64(81234), gas)

		require.Len(t, node.requests, 1)
		txBytes, err := base64.StdEncoding.DecodeString(node.requests[0]["tx_bytes"])
		require.NoError(t, err)
		raw, err := codec.DecodeTxRaw(txBytes)
		require.NoError(t, err)
		require.Len(t, raw.Signatures, 1)
		assert.Empty(t, raw.Signatures[0])

		auth, err := codec.DecodeAuthInfo(raw.AuthInfoBytes)
		require.NoError(t, err)
		assert.Equal(t, keyType.PubKeyEd25519Placeholder, auth.SignerInfos[0].PublicKey.TypeURL)
		assert.Empty(t, auth.SignerInfos[0].PublicKey.Value)
		assert.Equal(t, uint64(3), auth.SignerInfos[0].Sequence)
		assert.Equal(t, uint64(200000), auth.Fee.GasLimit)
	})

	t.Run("insufficient fee", func(t *testing.T) {
		o, reg := setupTestOrchestrator(t)
		node := setupTestNode(t, "/cosmos/tx/v1beta1/simulate", http.StatusOK, `{"tx_response":{"code":5,"raw_log":"insufficient fee"}}`)

		_, err := o.Simulate(context.Background(), node.server.URL, testTransaction("cosmos1signer"))
		require.ErrorIs(t, err, types.ErrSimulationFailed)
		var nodeErr *types.NodeError
		require.True(t, errors.As(err, &nodeErr))
		assert.Equal(t, "insufficient fee", nodeErr.RawLog)
		assert.Equal(t, uint32(5), nodeErr.Code)

		count, err := testutil.GatherAndCount(reg, "unisigner_node_requests_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("outer envelope error", func(t *testing.T) {
		o, _ := setupTestOrchestrator(t)
		node := setupTestNode(t, "/cosmos/tx/v1beta1/simulate", http.StatusInternalServerError, `{"code":2,"message":"codespace sdk code 4: signature verification failed"}`)

		_, err := o.Simulate(context.Background(), node.server.URL, testTransaction("cosmos1signer"))
		assert.ErrorIs(t, err, types.ErrSimulationFailed)
		assert.ErrorContains(t, err, "signature verification failed")
	})

	t.Run("unregistered message", func(t *testing.T) {
		o, _ := setupTestOrchestrator(t)
		node := setupTestNode(t, "/cosmos/tx/v1beta1/simulate", http.StatusOK, `{}`)
		tx := testTransaction("cosmos1signer")
		tx.Messages[0].TypeURL = "/custom.v1.MsgThing"

		_, err := o.Simulate(context.Background(), node.server.URL, tx)
		assert.ErrorIs(t, err, types.ErrUnknownTypeUrl)
		assert.Empty(t, node.requests)
	})
}

func TestOrchestrator_Broadcast(t *testing.T) {
	w, signer := setupTestKeplr(t)

	t.Run("sign and broadcast", func(t *testing.T) {
		o, _ := setupTestOrchestrator(t)
		node := setupTestNode(t, "/cosmos/tx/v1beta1/txs", http.StatusOK, `{"tx_response":{"height":"0","txhash":"5F2A","code":0}}`)

		res, err := o.SignAndBroadcast(context.Background(), w, node.server.URL+"/", testTransaction(signer), "")
		require.NoError(t, err)
		assert.Equal(t, "5F2A", res.TxHash)
		assert.Equal(t, string(types.BroadcastModeSync), node.requests[0]["mode"])

		txBytes, err := base64.StdEncoding.DecodeString(node.requests[0]["tx_bytes"])
		require.NoError(t, err)
		raw, err := codec.DecodeTxRaw(txBytes)
		require.NoError(t, err)
		assert.Len(t, raw.Signatures[0], 64)
	})

	t.Run("rejected", func(t *testing.T) {
		o, _ := setupTestOrchestrator(t)
		node := setupTestNode(t, "/cosmos/tx/v1beta1/txs", http.StatusOK, `{"tx_response":{"txhash":"5F2A","code":32,"codespace":"sdk","raw_log":"account sequence mismatch, expected 4, got 3"}}`)

		signed, err := o.Sign(context.Background(), w, testTransaction(signer))
		require.NoError(t, err)
		_, err = o.Broadcast(context.Background(), node.server.URL, signed, types.BroadcastModeBlock)
		require.ErrorIs(t, err, types.ErrBroadcastFailed)
		assert.ErrorContains(t, err, "account sequence mismatch")
		assert.Equal(t, string(types.BroadcastModeBlock), node.requests[0]["mode"])
		assert.Len(t, node.requests, 1)
	})
}

func TestOrchestrator_node_Reuse(t *testing.T) {
	o, _ := setupTestOrchestrator(t)
	a, err := o.node("https://rest.example.com/")
	require.NoError(t, err)
	b, err := o.node("https://rest.example.com")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Len(t, o.nodes, 1)

	_, err = o.node("")
	assert.Error(t, err)
}
