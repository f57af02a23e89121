// Package wallet provides the signing backends that turn an abstract transaction into a
// wire-ready signed transaction. Every backend satisfies IWallet over a different
// external capability (browser extension, hardware device, snap, Ethereum provider,
// bitcoin wallet or cloud KMS) and hides the signing protocol it needs behind it.
package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/messages"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/ethereum/go-ethereum/accounts"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// IWallet is the capability contract every signing backend implements.
type IWallet interface {
	// Name returns the backend name the wallet was created under
	Name() WalletName
	// GetAccounts queries the external signer for the accounts it controls
	GetAccounts(ctx context.Context) ([]types.Account, error)
	// SupportCoinType reports whether the backend can sign for the given coin type
	SupportCoinType(ctx context.Context, coinType string) (bool, error)
	// Sign produces a signed transaction over tx
	Sign(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error)
}

// WalletName is the user-facing name of a backend.
type WalletName string

const (
	WalletNameKeplr        WalletName = "Keplr"
	WalletNameLedger       WalletName = "LedgerUSB"
	WalletNameLedgerBLE    WalletName = "LedgerBLE"
	WalletNameMetamask     WalletName = "Metamask"
	WalletNameMetamaskSnap WalletName = "MetamaskSnap"
	WalletNameLeap         WalletName = "Leap"
	WalletNameOKX          WalletName = "OKX Wallet"
	WalletNameUnisat       WalletName = "UniSat Wallet"
	WalletNameAwsKms       WalletName = "AwsKms"
)

// Protocol is the signing protocol a backend uses for one transaction.
type Protocol string

const (
	ProtocolDirect Protocol = "direct"
	ProtocolAmino  Protocol = "amino"
	ProtocolEIP712 Protocol = "eip712"
)

const (
	TransportUSB = "usb"
	TransportBLE = "ble"

	DefaultHDPath         = "m/44'/60/0'/0/0"
	DefaultLedgerHDPath   = "m/44'/118'/0'/0/0"
	DefaultChainID        = "cosmoshub"
	DefaultCosmosPrefix   = "cosmos"
	DefaultMetamaskPrefix = "evmos"
)

// WalletArgument carries the connection parameters of a backend. Every field is optional.
type WalletArgument struct {
	ChainID   string `json:"chainId,omitempty" yaml:"chainId,omitempty"`
	HdPath    string `json:"hdPath,omitempty" yaml:"hdPath,omitempty"`
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	KeyID     string `json:"keyId,omitempty" yaml:"keyId,omitempty"`
}

// Validate checks the argument fields that have a closed set of valid values.
func (a *WalletArgument) Validate() error {
	var allErrs field.ErrorList
	if a.Transport != "" && a.Transport != TransportUSB && a.Transport != TransportBLE {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("transport"), a.Transport, []string{TransportUSB, TransportBLE}))
	}
	if a.HdPath != "" {
		if _, err := accounts.ParseDerivationPath(a.HdPath); err != nil {
			allErrs = append(allErrs, field.Invalid(field.NewPath("hdPath"), a.HdPath, err.Error()))
		}
	}
	if len(allErrs) > 0 {
		return allErrs.ToAggregate()
	}
	return nil
}

func (a *WalletArgument) chainID() string {
	if a.ChainID == "" {
		return DefaultChainID
	}
	return a.ChainID
}

func (a *WalletArgument) prefixOr(def string) string {
	if a.Prefix == "" {
		return def
	}
	return a.Prefix
}

// isEthereumPath reports whether hdPath uses the Ethereum coin type (60).
func isEthereumPath(hdPath string) bool {
	return strings.HasPrefix(hdPath, "m/44/60") || strings.HasPrefix(hdPath, "m/44'/60")
}

// SelectProtocol picks the protocol for a message set. Contract messages, and any
// message without an amino rendering, force the direct protocol on amino backends;
// otherwise the backend default is kept.
func SelectProtocol(msgs []types.Message, def Protocol, aminoTypes *amino.AminoTypes) Protocol {
	for _, m := range msgs {
		if messages.IsContractMessage(m.TypeURL) {
			return ProtocolDirect
		}
		if def == ProtocolAmino && aminoTypes != nil && !aminoTypes.Supports(m.TypeURL) {
			return ProtocolDirect
		}
	}
	return def
}

// coinTypeFromPath extracts the BIP-44 coin type of hdPath.
func coinTypeFromPath(hdPath string) (uint32, error) {
	path, err := accounts.ParseDerivationPath(hdPath)
	if err != nil {
		return 0, fmt.Errorf("invalid hd path %q: %w", hdPath, err)
	}
	if len(path) < 2 {
		return 0, fmt.Errorf("hd path %q has no coin type", hdPath)
	}
	return path[1] &^ 0x80000000, nil
}
