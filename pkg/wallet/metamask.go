package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Layr-Labs/unisigner-go/pkg/address"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/eip712"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

const (
	verifyPublicKeyMessage = "Verify Public Key"

	methodRequestAccounts = "eth_requestAccounts"
	methodPersonalSign    = "personal_sign"
	methodSignTypedDataV4 = "eth_signTypedData_v4"
)

// MetamaskWallet signs EIP-712 typed data through an Ethereum provider. Ethereum
// providers never expose public keys, so discovery recovers the key from a signed
// verification message and caches the result.
type MetamaskWallet struct {
	baseWallet
	provider IEthereumProvider
	adapter  *eip712.Adapter
	cache    *AccountCache
	prefix   string
}

var _ IWallet = (*MetamaskWallet)(nil)

func (w *MetamaskWallet) cacheKey() string {
	return CacheKey(w.name, w.arg.chainID(), w.prefix)
}

// GetAccounts runs live discovery: it requests the accounts, signs the verification message
// with the first one, recovers and verifies its key and returns that account.
func (w *MetamaskWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	var addrs []string
	if err := w.request(ctx, &addrs, methodRequestAccounts); err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: provider returned no accounts", types.ErrAccountNotFound)
	}
	ethAddr := addrs[0]

	var sigHex string
	if err := w.request(ctx, &sigHex, methodPersonalSign, verifyPublicKeyMessage, ethAddr, ""); err != nil {
		return nil, err
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return nil, fmt.Errorf("invalid verification signature: %w", err)
	}
	pubKey, err := recoverEthereumKey(accounts.TextHash([]byte(verifyPublicKeyMessage)), sig)
	if err != nil {
		return nil, fmt.Errorf("failed to recover public key from verification signature: %w", err)
	}
	pub, err := crypto.DecompressPubkey(pubKey)
	if err != nil {
		return nil, err
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(ethAddr) {
		return nil, fmt.Errorf("verification signature was not produced by %s", ethAddr)
	}

	bech, err := address.EthToBech32(ethAddr, w.prefix)
	if err != nil {
		return nil, err
	}
	accts := []types.Account{{Address: bech, Algo: types.AlgoEthSecp256k1, PubKey: pubKey}}
	w.cache.Add(w.cacheKey(), accts)
	return accts, nil
}

// connectedAccounts reads through the cache, falling back to live discovery.
func (w *MetamaskWallet) connectedAccounts(ctx context.Context) ([]types.Account, bool, error) {
	if accts, ok := w.cache.Get(w.cacheKey()); ok {
		return accts, true, nil
	}
	accts, err := w.GetAccounts(ctx)
	return accts, false, err
}

func (w *MetamaskWallet) findSigner(ctx context.Context, signer string) (*types.Account, error) {
	accts, cached, err := w.connectedAccounts(ctx)
	if err != nil {
		return nil, err
	}
	account, err := findAccount(accts, signer)
	if err != nil && cached && errors.Is(err, types.ErrAccountNotFound) {
		// the cache may be stale if the user switched accounts
		w.cache.Remove(w.cacheKey())
		if accts, err = w.GetAccounts(ctx); err != nil {
			return nil, err
		}
		return findAccount(accts, signer)
	}
	return account, err
}

// Sign signs tx as EIP-712 typed data. Messages outside the typed-data allowlist are
// rejected before the provider is contacted. The broadcast body is rebuilt from the
// signed typed messages.
func (w *MetamaskWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error) {
	if err := eip712.CheckMessages(tx.Messages); err != nil {
		return nil, err
	}
	w.logSign(tx, ProtocolEIP712)

	td, err := w.adapter.BuildTypedData(tx)
	if err != nil {
		return nil, err
	}
	hash, err := eip712.Hash(td)
	if err != nil {
		return nil, err
	}
	signedMsgs, err := w.adapter.SignedMessages(td)
	if err != nil {
		return nil, err
	}
	memo, _ := td.Message["memo"].(string)
	body, err := w.registry.EncodeTxBody(signedMsgs, memo)
	if err != nil {
		return nil, err
	}
	gas, err := tx.Fee.GasLimit()
	if err != nil {
		return nil, err
	}

	account, err := w.findSigner(ctx, tx.SignerAddress)
	if err != nil {
		return nil, err
	}
	ethAddr, err := address.Bech32ToEth(tx.SignerAddress)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(td)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}

	var sigHex string
	if err := w.request(ctx, &sigHex, methodSignTypedDataV4, ethAddr, string(payload)); err != nil {
		return nil, err
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return nil, fmt.Errorf("invalid typed data signature: %w", err)
	}
	recovered, err := recoverEthereumKey(hash, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to verify typed data signature: %w", err)
	}
	if !bytes.Equal(recovered, account.PubKey) {
		return nil, fmt.Errorf("typed data signature was not produced by %s", tx.SignerAddress)
	}

	// the typed data names the signer as fee payer, which an empty payer also means
	authInfo := codec.BuildAuthInfo(pubKeyAny(tx.ChainID, account.PubKey), tx.SignerData.Sequence, tx.Fee.Amount, gas, "", "", codec.SignModeLegacyAminoJSON)
	w.logger.Sugar().Debugw("Built EIP-712 signed transaction", zap.String("signer", tx.SignerAddress))
	return &types.SignedTransaction{
		BodyBytes:     body,
		AuthInfoBytes: authInfo,
		Signatures:    [][]byte{sig},
	}, nil
}

func (w *MetamaskWallet) request(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	raw, err := w.provider.Request(ctx, method, params...)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unexpected %s response: %w", method, err)
	}
	return nil
}

// recoverEthereumKey recovers the compressed public key behind a 65-byte signature
// whose recovery id is either 0/1 or 27/28.
func recoverEthereumKey(hash []byte, sig []byte) ([]byte, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	normalized := append([]byte(nil), sig...)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return nil, err
	}
	return crypto.CompressPubkey(pub), nil
}
