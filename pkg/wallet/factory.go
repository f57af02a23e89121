package wallet

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/eip712"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"go.uber.org/zap"
)

// BackendKind is the closed set of concrete backends.
type BackendKind int

const (
	BackendKeplr BackendKind = iota
	BackendLeap
	BackendLedgerUSB
	BackendLedgerBLE
	BackendMetamask
	BackendMetamaskSnap
	BackendOKX
	BackendUnisat
	BackendAwsKms

	backendKindCount
)

var backendNames = [backendKindCount]WalletName{
	BackendKeplr:        WalletNameKeplr,
	BackendLeap:         WalletNameLeap,
	BackendLedgerUSB:    WalletNameLedger,
	BackendLedgerBLE:    WalletNameLedgerBLE,
	BackendMetamask:     WalletNameMetamask,
	BackendMetamaskSnap: WalletNameMetamaskSnap,
	BackendOKX:          WalletNameOKX,
	BackendUnisat:       WalletNameUnisat,
	BackendAwsKms:       WalletNameAwsKms,
}

type constructor func(f *Factory, arg WalletArgument) (IWallet, error)

// one constructor per kind; the array length ties the table to the kind set
var constructors = [backendKindCount]constructor{
	BackendKeplr:        newKeplrWallet,
	BackendLeap:         newLeapWallet,
	BackendLedgerUSB:    newLedgerUSBWallet,
	BackendLedgerBLE:    newLedgerBLEWallet,
	BackendMetamask:     newMetamaskWallet,
	BackendMetamaskSnap: newSnapWallet,
	BackendOKX:          newOKXWallet,
	BackendUnisat:       newUnisatWallet,
	BackendAwsKms:       newAwsKmsWallet,
}

var kindsByName = map[WalletName]BackendKind{}

func init() {
	for kind := BackendKind(0); kind < backendKindCount; kind++ {
		if constructors[kind] == nil || backendNames[kind] == "" {
			panic(fmt.Sprintf("backend kind %d is not registered", kind))
		}
		kindsByName[backendNames[kind]] = kind
	}
}

func (k BackendKind) String() string {
	if k < 0 || k >= backendKindCount {
		return fmt.Sprintf("BackendKind(%d)", int(k))
	}
	return string(backendNames[k])
}

// BackendKinds lists every backend kind.
func BackendKinds() []BackendKind {
	kinds := make([]BackendKind, 0, backendKindCount)
	for kind := BackendKind(0); kind < backendKindCount; kind++ {
		kinds = append(kinds, kind)
	}
	return kinds
}

// WalletNames lists the names CreateWallet accepts.
func WalletNames() []WalletName {
	return append([]WalletName(nil), backendNames[:]...)
}

// ParseWalletName resolves a backend name to its kind.
func ParseWalletName(name string) (BackendKind, error) {
	kind, ok := kindsByName[WalletName(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrUnsupportedBackend, name)
	}
	return kind, nil
}

// Factory creates signing backends over an injected Environment and owns the account
// cache they share.
type Factory struct {
	env        Environment
	registry   *codec.Registry
	aminoTypes *amino.AminoTypes
	adapter    *eip712.Adapter
	cache      *AccountCache
	cacheSize  int
	logger     *zap.Logger

	// transport kind -> *sync.Mutex guarding the device behind it
	ledgerLocks sync.Map
}

type FactoryOption func(*Factory)

// WithAccountCacheSize bounds the number of cached account lists.
func WithAccountCacheSize(size int) FactoryOption {
	return func(f *Factory) {
		f.cacheSize = size
	}
}

// NewFactory creates a backend factory.
//
// Parameters:
//   - env: The external capabilities backends are built on
//   - registry: The message registry used to encode transaction bodies
//   - logger: Logger handed to every backend
//   - opts: Optional settings
//
// Returns:
//   - *Factory: The factory
//   - error: An error if the account cache cannot be created
func NewFactory(env Environment, registry *codec.Registry, logger *zap.Logger, opts ...FactoryOption) (*Factory, error) {
	if env == nil {
		return nil, fmt.Errorf("environment cannot be nil")
	}
	aminoTypes := amino.NewAminoTypes()
	f := &Factory{
		env:        env,
		registry:   registry,
		aminoTypes: aminoTypes,
		adapter:    eip712.NewAdapter(aminoTypes),
		cacheSize:  DefaultAccountCacheSize,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	cache, err := NewAccountCache(f.cacheSize)
	if err != nil {
		return nil, err
	}
	f.cache = cache
	return f, nil
}

// Cache exposes the factory's account cache.
func (f *Factory) Cache() *AccountCache {
	return f.cache
}

// AminoTypes returns the amino table shared by the factory's backends.
func (f *Factory) AminoTypes() *amino.AminoTypes {
	return f.aminoTypes
}

// resolveKind applies the Metamask rule: Ethereum hd paths sign typed data, anything
// else goes through the snap.
func resolveKind(name WalletName, arg *WalletArgument) (BackendKind, error) {
	kind, err := ParseWalletName(string(name))
	if err != nil {
		return 0, err
	}
	if kind == BackendMetamask && !isEthereumPath(arg.HdPath) {
		return BackendMetamaskSnap, nil
	}
	return kind, nil
}

// CreateWallet constructs the backend registered under name. It validates the argument
// and the presence of the capability the backend needs; it performs no network or
// device I/O.
func (f *Factory) CreateWallet(name WalletName, arg *WalletArgument) (IWallet, error) {
	if arg == nil {
		arg = &WalletArgument{}
	}
	if err := arg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid wallet argument: %w", err)
	}
	kind, err := resolveKind(name, arg)
	if err != nil {
		return nil, err
	}
	w, err := constructors[kind](f, *arg)
	if err != nil {
		return nil, err
	}
	f.logger.Sugar().Debugw("Created wallet",
		zap.String("name", string(name)),
		zap.String("backend", kind.String()),
		zap.String("chainId", arg.chainID()),
	)
	return w, nil
}

// Reconnect drops the cached accounts of the backend and creates it again.
func (f *Factory) Reconnect(name WalletName, arg *WalletArgument) (IWallet, error) {
	if arg == nil {
		arg = &WalletArgument{}
	}
	kind, err := resolveKind(name, arg)
	if err != nil {
		return nil, err
	}
	f.cache.RemoveBackend(backendNames[kind])
	return f.CreateWallet(name, arg)
}

func (f *Factory) base(kind BackendKind, arg WalletArgument) baseWallet {
	return baseWallet{
		name:       backendNames[kind],
		arg:        arg,
		registry:   f.registry,
		aminoTypes: f.aminoTypes,
		logger:     f.logger,
	}
}

func missingExtension(kind BackendKind, capability string) error {
	return fmt.Errorf("%w: %s requires %s", types.ErrMissingExtension, kind, capability)
}

func newExtensionWallet(f *Factory, kind BackendKind, ext IOfflineSignerExtension, arg WalletArgument) (IWallet, error) {
	if ext == nil {
		return nil, missingExtension(kind, "an offline signer extension")
	}
	return &ExtensionWallet{baseWallet: f.base(kind, arg), extension: ext}, nil
}

func newKeplrWallet(f *Factory, arg WalletArgument) (IWallet, error) {
	return newExtensionWallet(f, BackendKeplr, f.env.Keplr(), arg)
}

func newLeapWallet(f *Factory, arg WalletArgument) (IWallet, error) {
	return newExtensionWallet(f, BackendLeap, f.env.Leap(), arg)
}

func newLedgerWallet(f *Factory, kind BackendKind, transport string, arg WalletArgument) (IWallet, error) {
	transports := f.env.LedgerTransports()
	if transports == nil {
		return nil, missingExtension(kind, "a ledger transport")
	}
	if arg.Transport != "" {
		transport = arg.Transport
	}
	hdPath := arg.HdPath
	if hdPath == "" {
		hdPath = DefaultLedgerHDPath
	}
	return &LedgerWallet{
		baseWallet: f.base(kind, arg),
		transports: transports,
		transport:  transport,
		hdPath:     hdPath,
		lock:       f.ledgerLock(transport),
	}, nil
}

// ledgerLock returns the lock serializing APDU exchanges on transport.
func (f *Factory) ledgerLock(transport string) *sync.Mutex {
	lock, _ := f.ledgerLocks.LoadOrStore(transport, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func newLedgerUSBWallet(f *Factory, arg WalletArgument) (IWallet, error) {
	return newLedgerWallet(f, BackendLedgerUSB, TransportUSB, arg)
}

func newLedgerBLEWallet(f *Factory, arg WalletArgument) (IWallet, error) {
	return newLedgerWallet(f, BackendLedgerBLE, TransportBLE, arg)
}

func newMetamaskWallet(f *Factory, arg WalletArgument) (IWallet, error) {
	provider := f.env.Ethereum()
	if provider == nil {
		return nil, missingExtension(BackendMetamask, "an ethereum provider")
	}
	return &MetamaskWallet{
		baseWallet: f.base(BackendMetamask, arg),
		provider:   provider,
		adapter:    f.adapter,
		cache:      f.cache,
		prefix:     arg.prefixOr(DefaultMetamaskPrefix),
	}, nil
}

func newSnapWallet(f *Factory, arg WalletArgument) (IWallet, error) {
	snap := f.env.Snap()
	if snap == nil {
		return nil, missingExtension(BackendMetamaskSnap, "a metamask snap provider")
	}
	return &SnapWallet{baseWallet: f.base(BackendMetamaskSnap, arg), snap: snap}, nil
}

func newBitcoinWallet(f *Factory, kind BackendKind, ext IBitcoinExtension, arg WalletArgument) (IWallet, error) {
	if ext == nil {
		return nil, missingExtension(kind, "a bitcoin wallet extension")
	}
	return &BitcoinWallet{baseWallet: f.base(kind, arg), extension: ext}, nil
}

func newOKXWallet(f *Factory, arg WalletArgument) (IWallet, error) {
	return newBitcoinWallet(f, BackendOKX, f.env.OKX(), arg)
}

func newUnisatWallet(f *Factory, arg WalletArgument) (IWallet, error) {
	return newBitcoinWallet(f, BackendUnisat, f.env.Unisat(), arg)
}

func newAwsKmsWallet(f *Factory, arg WalletArgument) (IWallet, error) {
	client := f.env.KMS()
	if client == nil {
		return nil, missingExtension(BackendAwsKms, "a KMS client")
	}
	if arg.KeyID == "" {
		return nil, fmt.Errorf("%s requires a key id", BackendAwsKms)
	}
	return &AwsKmsWallet{
		baseWallet: f.base(BackendAwsKms, arg),
		client:     client,
		keyID:      arg.KeyID,
		prefix:     arg.prefixOr(DefaultCosmosPrefix),
	}, nil
}
