package wallet

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"go.uber.org/zap"
)

// ExtensionWallet signs through a Keplr-style offline signer extension. Keplr and Leap
// share this implementation; they differ only in the injected extension.
type ExtensionWallet struct {
	baseWallet
	extension IOfflineSignerExtension
}

var _ IWallet = (*ExtensionWallet)(nil)

// GetAccounts enables the chain in the extension and lists its accounts.
func (w *ExtensionWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	chainID := w.arg.chainID()
	if err := w.extension.Enable(ctx, chainID); err != nil {
		return nil, fmt.Errorf("failed to enable %s for chain %s: %w", w.name, chainID, err)
	}
	accts, err := w.extension.GetAccounts(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts from %s: %w", w.name, err)
	}
	return accts, nil
}

// Sign signs in legacy amino mode unless the message set forces direct mode.
func (w *ExtensionWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error) {
	protocol := SelectProtocol(tx.Messages, ProtocolAmino, w.aminoTypes)
	w.logSign(tx, protocol)
	if protocol == ProtocolDirect {
		return w.signDirect(ctx, tx)
	}
	return w.signAmino(ctx, tx)
}

func (w *ExtensionWallet) signDirect(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error) {
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
	res, err := w.extension.SignDirect(ctx, w.arg.chainID(), tx.SignerAddress, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to sign direct with %s: %w", w.name, err)
	}
	if res == nil {
		return nil, fmt.Errorf("failed to sign direct with %s: %w", w.name, errEmptySignResponse)
	}
	return assembleDirect(res.Signed, res.Signature)
}

func (w *ExtensionWallet) signAmino(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error) {
	doc, err := w.buildAminoSignDoc(tx)
	if err != nil {
		return nil, err
	}

	accts, err := w.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	account, err := findAccount(accts, tx.SignerAddress)
	if err != nil {
		return nil, err
	}

	res, err := w.extension.SignAmino(ctx, w.arg.chainID(), tx.SignerAddress, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to sign amino with %s: %w", w.name, err)
	}
	if res == nil {
		return nil, fmt.Errorf("failed to sign amino with %s: %w", w.name, errEmptySignResponse)
	}
	w.logger.Sugar().Debugw("Extension returned amino signature", zap.String("wallet", string(w.name)))
	return w.assembleAmino(res.Signed, pubKeyAny(tx.ChainID, account.PubKey), res.Signature)
}
