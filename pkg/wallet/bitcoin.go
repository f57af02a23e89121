package wallet

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
)

const bitcoinSignatureKind = "ecdsa"

// BitcoinWallet signs through a bitcoin wallet extension (OKX, UniSat) that only offers
// generic message signing. The signed message is the serialized amino document, or the
// direct sign bytes when the message set forces direct signing.
type BitcoinWallet struct {
	baseWallet
	extension IBitcoinExtension
}

var _ IWallet = (*BitcoinWallet)(nil)

// GetAccounts connects the extension and returns its first account with the wallet's
// public key.
func (w *BitcoinWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	if err := w.extension.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", w.name, err)
	}
	addrs, err := w.extension.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts from %s: %w", w.name, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s returned no accounts", types.ErrAccountNotFound, w.name)
	}
	pubKeyHex, err := w.extension.GetPublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get public key from %s: %w", w.name, err)
	}
	pubKey, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid public key from %s: %w", w.name, err)
	}
	return []types.Account{{Address: addrs[0], Algo: types.AlgoSegwit, PubKey: pubKey}}, nil
}

func (w *BitcoinWallet) signMessage(ctx context.Context, message []byte) ([]byte, error) {
	sigB64, err := w.extension.SignMessage(ctx, string(message), bitcoinSignatureKind)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message with %s: %w", w.name, err)
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, fmt.Errorf("invalid signature from %s: %w", w.name, err)
	}
	return sig, nil
}

// Sign signs the hand-serialized amino document, switching to direct sign bytes for
// message sets that cannot be expressed in amino.
func (w *BitcoinWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error) {
	protocol := SelectProtocol(tx.Messages, ProtocolAmino, w.aminoTypes)
	w.logSign(tx, protocol)

	var (
		aminoDoc  *amino.StdSignDoc
		directDoc *codec.SignDoc
		message   []byte
	)
	if protocol == ProtocolAmino {
		doc, err := w.buildAminoSignDoc(tx)
		if err != nil {
			return nil, err
		}
		if message, err = amino.SerializeSignDoc(doc); err != nil {
			return nil, err
		}
		aminoDoc = doc
	}

	accts, err := w.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	account, err := findAccount(accts, tx.SignerAddress)
	if err != nil {
		return nil, err
	}
	pubKey := codec.EncodePubKeyAny(keyType.PubKeySegwit, account.PubKey)

	if protocol == ProtocolDirect {
		if directDoc, err = w.buildDirectSignDoc(tx, pubKey); err != nil {
			return nil, err
		}
		message = directDoc.Marshal()
	}

	sig, err := w.signMessage(ctx, message)
	if err != nil {
		return nil, err
	}
	if protocol == ProtocolDirect {
		return assembleDirect(directDoc, sig)
	}
	return w.assembleAmino(aminoDoc, pubKey, sig)
}
