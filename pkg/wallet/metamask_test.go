package wallet

import (
	"testing"

	"github.com/Layr-Labs/unisigner-go/pkg/address"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/eip712"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/messages"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEvmosChainID = "evmos_9001-2"

func setupTestMetamask(t *testing.T) (*testKey, *fakeEthereumProvider, *Factory, IWallet) {
	key := newTestKey(t)
	provider := newFakeEthereumProvider(key)
	f := setupTestFactory(t, &StaticEnvironment{EthereumProvider: provider})
	w, err := f.CreateWallet(WalletNameMetamask, &WalletArgument{HdPath: DefaultHDPath, ChainID: testEvmosChainID})
	require.NoError(t, err)
	return key, provider, f, w
}

func evmosAddress(t *testing.T, key *testKey) string {
	addr, err := address.EthToBech32(key.ethAddress(), DefaultMetamaskPrefix)
	require.NoError(t, err)
	return addr
}

func TestMetamaskWallet_GetAccounts(t *testing.T) {
	key, provider, f, w := setupTestMetamask(t)

	accts, err := w.GetAccounts(testContext(t))
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, evmosAddress(t, key), accts[0].Address)
	assert.Equal(t, types.AlgoEthSecp256k1, accts[0].Algo)
	assert.Equal(t, key.compressed, accts[0].PubKey)
	assert.Equal(t, 1, provider.calls[methodPersonalSign])

	cached, ok := f.Cache().Get(CacheKey(WalletNameMetamask, testEvmosChainID, DefaultMetamaskPrefix))
	require.True(t, ok)
	assert.Equal(t, accts, cached)
}

func TestMetamaskWallet_Sign(t *testing.T) {
	key, provider, _, w := setupTestMetamask(t)
	signer := evmosAddress(t, key)

	tx := testTransaction(testEvmosChainID, signer, sendMsg(signer), sendMsg(signer))
	signed, err := w.Sign(testContext(t), tx)
	require.NoError(t, err)
	require.Len(t, provider.typedHashes, 1)

	sig := signed.Signatures[0]
	require.Len(t, sig, crypto.SignatureLength)
	recovered, err := recoverEthereumKey(provider.typedHashes[0], sig)
	require.NoError(t, err)
	assert.Equal(t, key.compressed, recovered)

	auth, err := codec.DecodeAuthInfo(signed.AuthInfoBytes)
	require.NoError(t, err)
	assert.Equal(t, codec.SignModeLegacyAminoJSON, auth.SignerInfos[0].Mode)
	assert.Equal(t, keyType.PubKeyEthermint, auth.SignerInfos[0].PublicKey.TypeURL)

	msgs, memo, err := messages.NewRegistry().DecodeTxBody(signed.BodyBytes)
	require.NoError(t, err)
	assert.Equal(t, tx.Messages, msgs)
	assert.Equal(t, "test", memo)
	require.Len(t, auth.Fee.Amount, 1)
	assert.Empty(t, auth.Fee.Granter)
	assert.Empty(t, auth.Fee.Payer)

	// second sign reads the cached account
	_, err = w.Sign(testContext(t), tx)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls[methodRequestAccounts])
	assert.Equal(t, 2, provider.calls[methodSignTypedDataV4])
}

func TestMetamaskWallet_Sign_StaleCache(t *testing.T) {
	key, provider, f, w := setupTestMetamask(t)
	signer := evmosAddress(t, key)

	stale := newTestKey(t)
	f.Cache().Add(CacheKey(WalletNameMetamask, testEvmosChainID, DefaultMetamaskPrefix), []types.Account{
		{Address: evmosAddress(t, stale), Algo: types.AlgoEthSecp256k1, PubKey: stale.compressed},
	})

	_, err := w.Sign(testContext(t), testTransaction(testEvmosChainID, signer, sendMsg(signer)))
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls[methodRequestAccounts])

	other := evmosAddress(t, newTestKey(t))
	_, err = w.Sign(testContext(t), testTransaction(testEvmosChainID, other, sendMsg(other)))
	assert.ErrorIs(t, err, types.ErrAccountNotFound)
	assert.Equal(t, 1, provider.calls[methodSignTypedDataV4])
}

func TestMetamaskWallet_Sign_Unsupported(t *testing.T) {
	key, provider, _, w := setupTestMetamask(t)
	signer := evmosAddress(t, key)

	_, err := w.Sign(testContext(t), testTransaction(testEvmosChainID, signer, executeMsg(signer)))
	assert.ErrorIs(t, err, types.ErrUnsupportedMessageType)

	vote := types.Message{TypeURL: messages.TypeURLMsgVote, Value: &messages.MsgVote{ProposalID: 1, Voter: signer, Option: messages.VoteOptionYes}}
	_, err = w.Sign(testContext(t), testTransaction(testEvmosChainID, signer, sendMsg(signer), vote))
	assert.ErrorIs(t, err, types.ErrUnsupportedMessageType)

	assert.Empty(t, provider.calls)
}

func TestMetamaskWallet_Sign_RejectsFeeGranter(t *testing.T) {
	key, provider, _, w := setupTestMetamask(t)
	signer := evmosAddress(t, key)

	tx := testTransaction(testEvmosChainID, signer, sendMsg(signer))
	tx.Fee.Granter = evmosAddress(t, newTestKey(t))
	_, err := w.Sign(testContext(t), tx)
	assert.ErrorIs(t, err, eip712.ErrUnsupportedFee)
	assert.Empty(t, provider.calls)
}

func TestRecoverEthereumKey(t *testing.T) {
	key := newTestKey(t)
	hash := crypto.Keccak256([]byte("payload"))
	sig, err := crypto.Sign(hash, key.key)
	require.NoError(t, err)

	recovered, err := recoverEthereumKey(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, key.compressed, recovered)

	sig[64] += 27
	recovered, err = recoverEthereumKey(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, key.compressed, recovered)

	_, err = recoverEthereumKey(hash, sig[:64])
	assert.Error(t, err)
}
