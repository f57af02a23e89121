package wallet

import (
	"strings"
	"sync"
	"testing"

	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLedger(t *testing.T, arg *WalletArgument) (*fakeLedger, IWallet) {
	device := &fakeLedger{key: newTestKey(t), appName: "Cosmos"}
	f := setupTestFactory(t, &StaticEnvironment{LedgerFactory: device})
	w, err := f.CreateWallet(WalletNameLedger, arg)
	require.NoError(t, err)
	return device, w
}

func TestLedgerWallet_GetAccounts(t *testing.T) {
	device, w := setupTestLedger(t, &WalletArgument{Prefix: "osmo"})

	accts, err := w.GetAccounts(testContext(t))
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, device.key.cosmosAddress(t, "osmo"), accts[0].Address)
	assert.Equal(t, device.key.compressed, accts[0].PubKey)
	assert.Equal(t, types.AlgoSecp256k1, accts[0].Algo)
	assert.Equal(t, 1, device.opened)
	assert.Equal(t, 1, device.closed)
}

func TestLedgerWallet_Sign(t *testing.T) {
	device, w := setupTestLedger(t, nil)
	signer := device.key.cosmosAddress(t, "cosmos")

	tx := testTransaction("cosmoshub-4", signer, sendMsg(signer))
	tx.Memo = strings.Repeat("m", 600)
	signed, err := w.Sign(testContext(t), tx)
	require.NoError(t, err)
	assert.Equal(t, device.opened, device.closed)

	aminoMsgs, err := amino.NewAminoTypes().ToAminoAll(tx.Messages)
	require.NoError(t, err)
	signBytes, err := amino.SerializeSignDoc(amino.MakeSignDoc(aminoMsgs, tx.Fee, tx.ChainID, tx.Memo, 7, 3))
	require.NoError(t, err)
	assert.Equal(t, signBytes, device.signing)
	require.Len(t, signed.Signatures[0], 64)
	assert.True(t, verifySha256(device.key.compressed, signBytes, signed.Signatures[0]))

	auth, err := codec.DecodeAuthInfo(signed.AuthInfoBytes)
	require.NoError(t, err)
	assert.Equal(t, codec.SignModeLegacyAminoJSON, auth.SignerInfos[0].Mode)
	assert.Equal(t, keyType.PubKeySecp256k1, auth.SignerInfos[0].PublicKey.TypeURL)
}

func TestLedgerWallet_Sign_Errors(t *testing.T) {
	t.Run("contract messages never reach the device", func(t *testing.T) {
		device, w := setupTestLedger(t, nil)
		signer := device.key.cosmosAddress(t, "cosmos")
		_, err := w.Sign(testContext(t), testTransaction("cosmoshub-4", signer, sendMsg(signer), executeMsg(signer)))
		assert.ErrorIs(t, err, types.ErrUnsupportedMessageType)
		assert.Contains(t, err.Error(), "/cosmwasm.wasm.v1.MsgExecuteContract")
		assert.Equal(t, 0, device.opened)
		assert.Equal(t, 0, device.exchanges)
	})

	t.Run("user rejection", func(t *testing.T) {
		device, w := setupTestLedger(t, nil)
		device.reject = true
		signer := device.key.cosmosAddress(t, "cosmos")
		_, err := w.Sign(testContext(t), testTransaction("cosmoshub-4", signer, sendMsg(signer)))
		assert.ErrorIs(t, err, types.ErrUserRejected)
		assert.Equal(t, 1, device.closed)
	})

	t.Run("wrong app open", func(t *testing.T) {
		device, w := setupTestLedger(t, nil)
		device.appName = "Ethereum"
		_, err := w.GetAccounts(testContext(t))
		assert.ErrorContains(t, err, "open the Cosmos app")
		assert.Equal(t, 1, device.closed)
	})

	t.Run("signer not on device", func(t *testing.T) {
		device, w := setupTestLedger(t, nil)
		other := newTestKey(t).cosmosAddress(t, "cosmos")
		_, err := w.Sign(testContext(t), testTransaction("cosmoshub-4", other, sendMsg(other)))
		assert.ErrorIs(t, err, types.ErrAccountNotFound)
		assert.Empty(t, device.signing)
	})

	t.Run("ethereum coin type", func(t *testing.T) {
		device, w := setupTestLedger(t, &WalletArgument{HdPath: "m/44'/60'/0'/0/0"})
		_, err := w.GetAccounts(testContext(t))
		assert.Error(t, err)
		assert.Equal(t, 0, device.opened)
	})
}

func TestLedgerWallet_GetAccounts_SharedTransport(t *testing.T) {
	device := &fakeLedger{key: newTestKey(t), appName: "Cosmos"}
	f := setupTestFactory(t, &StaticEnvironment{LedgerFactory: device})

	wallets := make([]IWallet, 0, 4)
	for _, prefix := range []string{"cosmos", "osmo"} {
		w, err := f.CreateWallet(WalletNameLedger, &WalletArgument{Prefix: prefix})
		require.NoError(t, err)
		wallets = append(wallets, w)
		w, err = f.Reconnect(WalletNameLedger, &WalletArgument{Prefix: prefix})
		require.NoError(t, err)
		wallets = append(wallets, w)
	}

	ctx := testContext(t)
	var wg sync.WaitGroup
	errs := make(chan error, len(wallets)*5)
	for _, w := range wallets {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(w IWallet) {
				defer wg.Done()
				_, err := w.GetAccounts(ctx)
				errs <- err
			}(w)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, len(wallets)*5, device.opened)
	assert.Equal(t, device.opened, device.closed)
}

func TestLedgerWallet_SupportCoinType(t *testing.T) {
	_, w := setupTestLedger(t, nil)
	for coinType, expected := range map[string]bool{"118": true, "529": true, "": true, "60": false} {
		ok, err := w.SupportCoinType(testContext(t), coinType)
		require.NoError(t, err)
		assert.Equal(t, expected, ok, coinType)
	}
	_, err := w.SupportCoinType(testContext(t), "atom")
	assert.Error(t, err)
}

func TestLedgerAppName(t *testing.T) {
	name, err := ledgerAppName(529)
	require.NoError(t, err)
	assert.Equal(t, "Secret", name)

	name, err = ledgerAppName(459)
	require.NoError(t, err)
	assert.Equal(t, "Cosmos", name)

	_, err = ledgerAppName(60)
	assert.Error(t, err)
}

func TestSerializeLedgerPath(t *testing.T) {
	path, err := accounts.ParseDerivationPath(DefaultLedgerHDPath)
	require.NoError(t, err)
	out, err := serializeLedgerPath(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x2c, 0x00, 0x00, 0x80,
		0x76, 0x00, 0x00, 0x80,
		0x00, 0x00, 0x00, 0x80,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}, out)

	_, err = serializeLedgerPath(path[:3])
	assert.Error(t, err)
}
