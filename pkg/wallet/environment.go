package wallet

import (
	"context"
	"encoding/json"

	"github.com/Layr-Labs/unisigner-go/pkg/amino"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/kms"
)

// DirectSignResponse is what an external signer returns for a direct sign request.
// Signed is the document actually signed, which the signer may have adjusted.
type DirectSignResponse struct {
	Signed    *codec.SignDoc
	Signature []byte
}

// AminoSignResponse is what an external signer returns for a legacy sign request.
type AminoSignResponse struct {
	Signed    *amino.StdSignDoc
	Signature []byte
}

// IOfflineSignerExtension is a Keplr-style browser extension.
type IOfflineSignerExtension interface {
	Enable(ctx context.Context, chainID string) error
	GetAccounts(ctx context.Context, chainID string) ([]types.Account, error)
	SignDirect(ctx context.Context, chainID string, signer string, doc *codec.SignDoc) (*DirectSignResponse, error)
	SignAmino(ctx context.Context, chainID string, signer string, doc *amino.StdSignDoc) (*AminoSignResponse, error)
}

// ILedgerTransport is an open channel to a hardware device. Exchange sends one APDU and
// returns the response including the trailing status word.
type ILedgerTransport interface {
	Exchange(ctx context.Context, apdu []byte) ([]byte, error)
	Close() error
}

// ILedgerTransportFactory opens device transports of a given kind (usb or ble).
type ILedgerTransportFactory interface {
	Open(ctx context.Context, kind string) (ILedgerTransport, error)
}

// IEthereumProvider is an EIP-1193 provider.
type IEthereumProvider interface {
	Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
}

// ISnapProvider is the RPC surface of a cosmos snap installed in an Ethereum wallet.
type ISnapProvider interface {
	GetSnap(ctx context.Context) (bool, error)
	ConnectSnap(ctx context.Context) error
	GetKey(ctx context.Context, chainID string) (*types.Account, error)
	SignDirect(ctx context.Context, chainID string, signer string, doc *codec.SignDoc) (*DirectSignResponse, error)
}

// IBitcoinExtension is a bitcoin wallet extension that only exposes generic message
// signing. SignMessage returns a base64 signature.
type IBitcoinExtension interface {
	Connect(ctx context.Context) error
	GetAccounts(ctx context.Context) ([]string, error)
	GetPublicKey(ctx context.Context) (string, error)
	SignMessage(ctx context.Context, message string, kind string) (string, error)
}

// IKMSClient is the subset of the AWS KMS client used for signing.
type IKMSClient interface {
	GetPublicKeyWithContext(ctx aws.Context, input *kms.GetPublicKeyInput, opts ...request.Option) (*kms.GetPublicKeyOutput, error)
	SignWithContext(ctx aws.Context, input *kms.SignInput, opts ...request.Option) (*kms.SignOutput, error)
}

// Environment supplies the external capabilities backends are built on. A nil return
// means the capability is absent.
type Environment interface {
	Keplr() IOfflineSignerExtension
	Leap() IOfflineSignerExtension
	LedgerTransports() ILedgerTransportFactory
	Ethereum() IEthereumProvider
	Snap() ISnapProvider
	OKX() IBitcoinExtension
	Unisat() IBitcoinExtension
	KMS() IKMSClient
}

// StaticEnvironment is an Environment backed by plain fields.
type StaticEnvironment struct {
	KeplrExtension   IOfflineSignerExtension
	LeapExtension    IOfflineSignerExtension
	LedgerFactory    ILedgerTransportFactory
	EthereumProvider IEthereumProvider
	SnapProvider     ISnapProvider
	OKXExtension     IBitcoinExtension
	UnisatExtension  IBitcoinExtension
	KMSClient        IKMSClient
}

var _ Environment = (*StaticEnvironment)(nil)

func (e *StaticEnvironment) Keplr() IOfflineSignerExtension            { return e.KeplrExtension }
func (e *StaticEnvironment) Leap() IOfflineSignerExtension             { return e.LeapExtension }
func (e *StaticEnvironment) LedgerTransports() ILedgerTransportFactory { return e.LedgerFactory }
func (e *StaticEnvironment) Ethereum() IEthereumProvider               { return e.EthereumProvider }
func (e *StaticEnvironment) Snap() ISnapProvider                       { return e.SnapProvider }
func (e *StaticEnvironment) OKX() IBitcoinExtension                    { return e.OKXExtension }
func (e *StaticEnvironment) Unisat() IBitcoinExtension                 { return e.UnisatExtension }
func (e *StaticEnvironment) KMS() IKMSClient                           { return e.KMSClient }
