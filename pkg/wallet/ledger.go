package wallet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Layr-Labs/unisigner-go/pkg/address"
	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/Layr-Labs/unisigner-go/pkg/util"
	"github.com/ethereum/go-ethereum/accounts"
	"go.uber.org/zap"
)

const ethereumCoinType = 60

// ledger app names by BIP-44 coin type; anything unlisted runs on the Cosmos app
var ledgerAppNames = map[uint32]string{
	118: "Cosmos",
	529: "Secret",
	852: "Desmos",
	330: "Terra",
}

// LedgerWallet signs legacy amino documents on a Ledger device running the Cosmos app.
type LedgerWallet struct {
	baseWallet
	transports ILedgerTransportFactory
	transport  string
	hdPath     string

	// shared by every wallet the factory built on this transport; one discovery or
	// sign flow owns the device at a time
	lock *sync.Mutex
}

var _ IWallet = (*LedgerWallet)(nil)

func ledgerAppName(coinType uint32) (string, error) {
	if coinType == ethereumCoinType {
		return "", fmt.Errorf("coin type %d is not supported by the ledger backend", coinType)
	}
	if name, ok := ledgerAppNames[coinType]; ok {
		return name, nil
	}
	return ledgerAppNames[118], nil
}

// SupportCoinType rejects the Ethereum coin type, which the Cosmos app cannot sign for.
func (w *LedgerWallet) SupportCoinType(ctx context.Context, coinType string) (bool, error) {
	if coinType == "" {
		return true, nil
	}
	ct, err := strconv.ParseUint(coinType, 10, 32)
	if err != nil {
		return false, fmt.Errorf("invalid coin type %q: %w", coinType, err)
	}
	return ct != ethereumCoinType, nil
}

// withApp opens the transport, checks the expected app is running and runs fn. The
// transport is closed before withApp returns.
func (w *LedgerWallet) withApp(ctx context.Context, fn func(app *ledgerApp, path accounts.DerivationPath) error) error {
	path, err := accounts.ParseDerivationPath(w.hdPath)
	if err != nil {
		return fmt.Errorf("invalid hd path %q: %w", w.hdPath, err)
	}
	coinType, err := coinTypeFromPath(w.hdPath)
	if err != nil {
		return err
	}
	expectedApp, err := ledgerAppName(coinType)
	if err != nil {
		return err
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	transport, err := w.transports.Open(ctx, w.transport)
	if err != nil {
		return fmt.Errorf("failed to open ledger %s transport: %w", w.transport, err)
	}
	defer func() {
		if cerr := transport.Close(); cerr != nil {
			w.logger.Sugar().Warnw("Failed to close ledger transport", zap.Error(cerr))
		}
	}()

	app := &ledgerApp{transport: transport}
	name, err := app.appName(ctx)
	if err != nil {
		return fmt.Errorf("failed to read ledger app info: %w", err)
	}
	if name != expectedApp {
		return fmt.Errorf("open the %s app on the ledger, found %s", expectedApp, name)
	}
	return fn(app, path)
}

// GetAccounts reads the account at the configured hd path.
func (w *LedgerWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	var account types.Account
	err := w.withApp(ctx, func(app *ledgerApp, path accounts.DerivationPath) error {
		pubKey, addr, err := app.getAddress(ctx, w.arg.prefixOr(DefaultCosmosPrefix), path)
		if err != nil {
			return err
		}
		account = types.Account{Address: addr, Algo: types.AlgoSecp256k1, PubKey: pubKey}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []types.Account{account}, nil
}

// Sign signs in legacy amino mode. The device cannot sign direct documents, so message
// sets that need direct signing are rejected before the device is touched.
func (w *LedgerWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error) {
	if protocol := SelectProtocol(tx.Messages, ProtocolAmino, w.aminoTypes); protocol != ProtocolAmino {
		return nil, types.UnsupportedMessageType(strings.Join(directOnlyTypeURLs(tx.Messages, w.aminoTypes), ", "), "ledger amino")
	}
	w.logSign(tx, ProtocolAmino)

	doc, err := w.buildAminoSignDoc(tx)
	if err != nil {
		return nil, err
	}
	signBytes, err := amino.SerializeSignDoc(doc)
	if err != nil {
		return nil, err
	}
	signer, err := address.Decode(tx.SignerAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrAccountNotFound, err)
	}

	var (
		pubKey    []byte
		signature []byte
	)
	err = w.withApp(ctx, func(app *ledgerApp, path accounts.DerivationPath) error {
		pk, addr, err := app.getAddress(ctx, signer.Prefix, path)
		if err != nil {
			return err
		}
		if !address.Equal(addr, tx.SignerAddress) {
			return fmt.Errorf("%w: %s", types.ErrAccountNotFound, tx.SignerAddress)
		}
		der, err := app.sign(ctx, path, signBytes)
		if err != nil {
			return err
		}
		if signature, err = derToCompact(der); err != nil {
			return fmt.Errorf("failed to parse ledger signature: %w", err)
		}
		pubKey = pk
		return nil
	})
	if err != nil {
		return nil, err
	}

	return w.assembleAmino(doc, codec.EncodePubKeyAny(keyType.PubKeySecp256k1, pubKey), signature)
}

// directOnlyTypeURLs lists the type URLs in msgs that cannot be signed in amino mode.
func directOnlyTypeURLs(msgs []types.Message, aminoTypes *amino.AminoTypes) []string {
	directOnly := util.Filter(msgs, func(m types.Message) bool {
		return SelectProtocol([]types.Message{m}, ProtocolAmino, aminoTypes) == ProtocolDirect
	})
	return util.Map(directOnly, func(m types.Message, _ uint64) string {
		return m.TypeURL
	})
}
