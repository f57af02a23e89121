package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Layr-Labs/unisigner-go/pkg/address"
	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/Layr-Labs/unisigner-go/pkg/util"
	"go.uber.org/zap"
)

// errEmptySignResponse is returned when a signer reports success without a response.
var errEmptySignResponse = errors.New("signer returned no response")

// baseWallet holds what every backend shares.
type baseWallet struct {
	name       WalletName
	arg        WalletArgument
	registry   *codec.Registry
	aminoTypes *amino.AminoTypes
	logger     *zap.Logger
}

func (b *baseWallet) Name() WalletName {
	return b.name
}

// SupportCoinType defaults to true; backends restricted to some curves override it.
func (b *baseWallet) SupportCoinType(ctx context.Context, coinType string) (bool, error) {
	return true, nil
}

func (b *baseWallet) logSign(tx *types.Transaction, protocol Protocol) {
	b.logger.Sugar().Debugw("Signing transaction",
		zap.String("wallet", string(b.name)),
		zap.String("chainId", tx.ChainID),
		zap.String("protocol", string(protocol)),
		zap.Int("messages", len(tx.Messages)),
	)
}

// findAccount returns the account whose decoded address payload equals the signer's.
func findAccount(accts []types.Account, signer string) (*types.Account, error) {
	account, ok := util.Find(accts, func(a types.Account) bool {
		return address.Equal(a.Address, signer)
	})
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrAccountNotFound, signer)
	}
	return &account, nil
}

// pubKeyAny packs key under the type URL the chain expects.
func pubKeyAny(chainID string, key []byte) *codec.Any {
	return codec.EncodePubKeyAny(keyType.Resolve(chainID), key)
}

// buildDirectSignDoc encodes the body and auth info of tx for direct signing.
func (b *baseWallet) buildDirectSignDoc(tx *types.Transaction, pubKey *codec.Any) (*codec.SignDoc, error) {
	body, err := b.registry.EncodeTxBody(tx.Messages, tx.Memo)
	if err != nil {
		return nil, err
	}
	gas, err := tx.Fee.GasLimit()
	if err != nil {
		return nil, err
	}
	authInfo := codec.BuildAuthInfo(pubKey, tx.SignerData.Sequence, tx.Fee.Amount, gas, tx.Fee.Granter, tx.Fee.Payer, codec.SignModeDirect)
	return codec.MakeSignDoc(body, authInfo, tx.ChainID, tx.SignerData.AccountNumber), nil
}

// buildAminoSignDoc renders tx as a legacy sign document. It fails before any
// external call if a message has no amino form.
func (b *baseWallet) buildAminoSignDoc(tx *types.Transaction) (*amino.StdSignDoc, error) {
	msgs, err := b.aminoTypes.ToAminoAll(tx.Messages)
	if err != nil {
		return nil, err
	}
	return amino.MakeSignDoc(msgs, tx.Fee, tx.ChainID, tx.Memo, tx.SignerData.AccountNumber, tx.SignerData.Sequence), nil
}

// assembleDirect wraps a direct signature around the document the signer returned.
func assembleDirect(signed *codec.SignDoc, signature []byte) (*types.SignedTransaction, error) {
	if signed == nil {
		return nil, fmt.Errorf("signer returned no sign document")
	}
	if len(signature) == 0 {
		return nil, fmt.Errorf("signer returned an empty signature")
	}
	return &types.SignedTransaction{
		BodyBytes:     signed.BodyBytes,
		AuthInfoBytes: signed.AuthInfoBytes,
		Signatures:    [][]byte{signature},
	}, nil
}

// assembleAmino rebuilds the broadcastable body from the document the signer actually
// signed, so the body always matches what the user approved.
func (b *baseWallet) assembleAmino(signed *amino.StdSignDoc, pubKey *codec.Any, signature []byte) (*types.SignedTransaction, error) {
	if signed == nil {
		return nil, fmt.Errorf("signer returned no sign document")
	}
	if len(signature) == 0 {
		return nil, fmt.Errorf("signer returned an empty signature")
	}
	msgs, err := b.aminoTypes.FromAminoAll(signed.Msgs)
	if err != nil {
		return nil, err
	}
	body, err := b.registry.EncodeTxBody(msgs, signed.Memo)
	if err != nil {
		return nil, err
	}
	gas, err := signed.Fee.GasLimit()
	if err != nil {
		return nil, err
	}
	sequence, err := strconv.ParseUint(signed.Sequence, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid signed sequence %q: %w", signed.Sequence, err)
	}
	authInfo := codec.BuildAuthInfo(pubKey, sequence, signed.Fee.Amount, gas, signed.Fee.Granter, signed.Fee.Payer, codec.SignModeLegacyAminoJSON)
	return &types.SignedTransaction{
		BodyBytes:     body,
		AuthInfoBytes: authInfo,
		Signatures:    [][]byte{signature},
	}, nil
}
