package wallet

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

// SnapWallet signs direct documents through a cosmos snap running inside an Ethereum
// wallet.
type SnapWallet struct {
	baseWallet
	snap ISnapProvider
}

var _ IWallet = (*SnapWallet)(nil)

// GetAccounts installs the snap if needed and returns the key it holds for the chain.
func (w *SnapWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	installed, err := w.snap.GetSnap(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: metamask snap: %v", types.ErrExtensionNotInstalled, err)
	}
	if !installed {
		if err := w.snap.ConnectSnap(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect metamask snap: %w", err)
		}
	}
	key, err := w.snap.GetKey(ctx, w.arg.chainID())
	if err != nil {
		return nil, fmt.Errorf("failed to get key from metamask snap: %w", err)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: metamask snap returned no key", types.ErrAccountNotFound)
	}
	return []types.Account{*key}, nil
}

// Sign always signs direct; the snap has no legacy mode.
func (w *SnapWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error) {
	w.logSign(tx, ProtocolDirect)

	accts, err := w.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	account, err := findAccount(accts, tx.SignerAddress)
	if err != nil {
		return nil, err
	}
	doc, err := w.buildDirectSignDoc(tx, pubKeyAny(tx.ChainID, account.PubKey))
	if err != nil {
		return nil, err
	}
	res, err := w.snap.SignDirect(ctx, w.arg.chainID(), tx.SignerAddress, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to sign with metamask snap: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("failed to sign with metamask snap: %w", errEmptySignResponse)
	}
	return assembleDirect(res.Signed, res.Signature)
}
