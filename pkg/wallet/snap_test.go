package wallet

import (
	"errors"
	"testing"

	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapWallet_Sign(t *testing.T) {
	key := newTestKey(t)
	snap := &fakeSnap{key: key}
	f := setupTestFactory(t, &StaticEnvironment{SnapProvider: snap})
	w, err := f.CreateWallet(WalletNameMetamask, &WalletArgument{ChainID: "cosmoshub-4"})
	require.NoError(t, err)
	signer := key.cosmosAddress(t, "cosmos")

	signed, err := w.Sign(testContext(t), testTransaction("cosmoshub-4", signer, sendMsg(signer), executeMsg(signer)))
	require.NoError(t, err)
	assert.Equal(t, 1, snap.connected)

	doc := codec.MakeSignDoc(signed.BodyBytes, signed.AuthInfoBytes, "cosmoshub-4", 7)
	assert.True(t, verifySha256(key.compressed, doc.Marshal(), signed.Signatures[0]))

	auth, err := codec.DecodeAuthInfo(signed.AuthInfoBytes)
	require.NoError(t, err)
	assert.Equal(t, codec.SignModeDirect, auth.SignerInfos[0].Mode)

	_, err = w.GetAccounts(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 1, snap.connected)
}

func TestSnapWallet_GetAccounts_NotInstalled(t *testing.T) {
	snap := &fakeSnap{key: newTestKey(t), err: errors.New("no ethereum wallet")}
	f := setupTestFactory(t, &StaticEnvironment{SnapProvider: snap})
	w, err := f.CreateWallet(WalletNameMetamaskSnap, nil)
	require.NoError(t, err)

	_, err = w.GetAccounts(testContext(t))
	assert.ErrorIs(t, err, types.ErrExtensionNotInstalled)
}

func TestSnapWallet_Sign_NoResponse(t *testing.T) {
	key := newTestKey(t)
	snap := &fakeSnap{key: key, installed: true, noResponse: true}
	f := setupTestFactory(t, &StaticEnvironment{SnapProvider: snap})
	w, err := f.CreateWallet(WalletNameMetamaskSnap, nil)
	require.NoError(t, err)
	signer := key.cosmosAddress(t, "cosmos")

	_, err = w.Sign(testContext(t), testTransaction("cosmoshub-4", signer, sendMsg(signer)))
	assert.ErrorIs(t, err, errEmptySignResponse)
}
