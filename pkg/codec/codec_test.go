package codec_test

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/messages"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSendMessage() types.Message {
	return types.Message{
		TypeURL: messages.TypeURLMsgSend,
		Value: &messages.MsgSend{
			FromAddress: "cosmos1from",
			ToAddress:   "cosmos1to",
			Amount:      []types.Coin{{Denom: "uatom", Amount: "500"}},
		},
	}
}

func TestEncodeCoin_Golden(t *testing.T) {
	b := codec.EncodeCoin(types.Coin{Denom: "uatom", Amount: "500"})
	assert.Equal(t, "0a057561746f6d1203353030", hex.EncodeToString(b))
}

func TestRegistry_EncodeTxBody_Deterministic(t *testing.T) {
	registry := messages.NewRegistry()

	first, err := registry.EncodeTxBody([]types.Message{testSendMessage()}, "hello")
	require.NoError(t, err)
	second, err := registry.EncodeTxBody([]types.Message{testSendMessage()}, "hello")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	msgs, memo, err := registry.DecodeTxBody(first)
	require.NoError(t, err)
	assert.Equal(t, "hello", memo)
	require.Len(t, msgs, 1)
	assert.Equal(t, testSendMessage(), msgs[0])
}

func TestRegistry_Encode_UnknownTypeUrl(t *testing.T) {
	registry := messages.NewRegistry()

	_, err := registry.Encode("/foo.v1.MsgBar", &messages.MsgSend{})
	assert.True(t, errors.Is(err, types.ErrUnknownTypeUrl))

	_, err = registry.Decode("/foo.v1.MsgBar", nil)
	assert.True(t, errors.Is(err, types.ErrUnknownTypeUrl))

	_, err = registry.EncodeTxBody([]types.Message{{TypeURL: "/foo.v1.MsgBar", Value: &messages.MsgSend{}}}, "")
	assert.True(t, errors.Is(err, types.ErrUnknownTypeUrl))
}

func TestRegistry_Encode_MismatchedValue(t *testing.T) {
	registry := messages.NewRegistry()

	_, err := registry.Encode(messages.TypeURLMsgSend, &messages.MsgDelegate{})
	assert.True(t, errors.Is(err, types.ErrUnknownTypeUrl))
}

func TestRegistry_TypeURLs(t *testing.T) {
	registry := messages.NewRegistry()
	urls := registry.TypeURLs()
	assert.Len(t, urls, 13)
	assert.True(t, registry.IsRegistered(messages.TypeURLMsgExecuteContract))
	assert.True(t, registry.IsRegistered(messages.TypeURLMsgMultiSend))
	assert.False(t, registry.IsRegistered("/cosmos.authz.v1beta1.MsgExec"))
}

func TestBuildAuthInfo_RoundTrip(t *testing.T) {
	key := make([]byte, 33)
	key[0] = 0x02
	pub := codec.EncodePubKeyAny("/cosmos.crypto.secp256k1.PubKey", key)

	b := codec.BuildAuthInfo(pub, 3, []types.Coin{{Denom: "uatom", Amount: "500"}}, 200000, "", "", codec.SignModeUnspecified)

	info, err := codec.DecodeAuthInfo(b)
	require.NoError(t, err)
	require.Len(t, info.SignerInfos, 1)
	assert.Equal(t, uint64(3), info.SignerInfos[0].Sequence)
	assert.Equal(t, codec.SignModeDirect, info.SignerInfos[0].Mode)
	assert.Equal(t, "/cosmos.crypto.secp256k1.PubKey", info.SignerInfos[0].PublicKey.TypeURL)

	decodedKey, err := codec.DecodePubKeyAny(info.SignerInfos[0].PublicKey)
	require.NoError(t, err)
	assert.Equal(t, key, decodedKey)

	require.NotNil(t, info.Fee)
	assert.Equal(t, uint64(200000), info.Fee.GasLimit)
	assert.Equal(t, []types.Coin{{Denom: "uatom", Amount: "500"}}, info.Fee.Amount)
	assert.Empty(t, info.Fee.Payer)
	assert.Empty(t, info.Fee.Granter)
}

func TestBuildAuthInfo_LegacyMode(t *testing.T) {
	b := codec.BuildAuthInfo(codec.EncodePubKeyAny("/cosmos.crypto.secp256k1.PubKey", []byte{1}), 0, nil, 1, "granter", "payer", codec.SignModeLegacyAminoJSON)

	info, err := codec.DecodeAuthInfo(b)
	require.NoError(t, err)
	assert.Equal(t, codec.SignModeLegacyAminoJSON, info.SignerInfos[0].Mode)
	assert.Equal(t, uint64(0), info.SignerInfos[0].Sequence)
	assert.Equal(t, "payer", info.Fee.Payer)
	assert.Equal(t, "granter", info.Fee.Granter)
}

func TestSignDoc_Marshal(t *testing.T) {
	doc := codec.MakeSignDoc([]byte{0x01}, []byte{0x02}, "cosmoshub-4", 7)

	decoded := &codec.SignDoc{}
	require.NoError(t, decoded.Unmarshal(doc.Marshal()))
	assert.Equal(t, doc, decoded)
	assert.Equal(t, "0a0101120102"+"1a0b"+hex.EncodeToString([]byte("cosmoshub-4"))+"2007", hex.EncodeToString(doc.Marshal()))
}

func TestTxRaw_EmptySignatureIsWritten(t *testing.T) {
	raw := codec.EncodeTxRaw(&types.SignedTransaction{
		BodyBytes:     []byte{0x0a},
		AuthInfoBytes: []byte{0x12},
		Signatures:    [][]byte{{}},
	})
	assert.Equal(t, "0a010a1201121a00", hex.EncodeToString(raw))

	decoded, err := codec.DecodeTxRaw(raw)
	require.NoError(t, err)
	require.Len(t, decoded.Signatures, 1)
	assert.Empty(t, decoded.Signatures[0])
}

func TestDecodeFields_Truncated(t *testing.T) {
	err := codec.DecodeFields([]byte{0x0a, 0x05, 0x01}, func(codec.Field) error { return nil })
	assert.Error(t, err)
}
