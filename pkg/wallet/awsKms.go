package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/asn1"
	"sync"

	"github.com/Layr-Labs/unisigner-go/pkg/address"
	"github.com/Layr-Labs/unisigner-go/pkg/codec"
	"github.com/Layr-Labs/unisigner-go/pkg/keyType"
	"github.com/Layr-Labs/unisigner-go/pkg/types"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AwsKmsWallet signs direct documents with a secp256k1 key held in AWS KMS. The key
// never leaves KMS; only digests are sent for signing.
type AwsKmsWallet struct {
	baseWallet
	client IKMSClient
	keyID  string
	prefix string

	mu     sync.Mutex
	pubKey []byte
}

var _ IWallet = (*AwsKmsWallet)(nil)

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

// parseKMSPublicKey parses the DER SubjectPublicKeyInfo returned by KMS into a
// compressed secp256k1 key.
func parseKMSPublicKey(der []byte) ([]byte, error) {
	var spki asn1EcPublicKey
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, errors.Wrap(err, "failed to parse ASN.1 public key")
	}
	pub, err := crypto.UnmarshalPubkey(spki.PublicKey.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse secp256k1 public key")
	}
	return crypto.CompressPubkey(pub), nil
}

// publicKey fetches and memoizes the compressed public key of the KMS key.
func (w *AwsKmsWallet) publicKey(ctx context.Context) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pubKey != nil {
		return w.pubKey, nil
	}

	out, err := w.client.GetPublicKeyWithContext(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(w.keyID),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for KMS key %s", w.keyID)
	}
	pubKey, err := parseKMSPublicKey(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for KMS key %s", w.keyID)
	}
	w.pubKey = pubKey
	return pubKey, nil
}

func (w *AwsKmsWallet) isEthereum(chainID string) bool {
	return keyType.IsEthereumCurve(keyType.Resolve(chainID))
}

// GetAccounts derives the account of the KMS key for the configured chain.
func (w *AwsKmsWallet) GetAccounts(ctx context.Context) ([]types.Account, error) {
	pubKey, err := w.publicKey(ctx)
	if err != nil {
		return nil, err
	}
	ethereum := w.isEthereum(w.arg.chainID())
	addr, err := address.FromPubKey(w.prefix, pubKey, ethereum)
	if err != nil {
		return nil, err
	}
	algo := types.AlgoSecp256k1
	if ethereum {
		algo = types.AlgoEthSecp256k1
	}
	return []types.Account{{Address: addr, Algo: algo, PubKey: pubKey}}, nil
}

// Sign signs tx in direct mode. Ethermint-style chains hash with keccak256 and carry a
// recovery id; all others hash with sha256.
func (w *AwsKmsWallet) Sign(ctx context.Context, tx *types.Transaction) (*types.SignedTransaction, error) {
	w.logSign(tx, ProtocolDirect)

	pubKey, err := w.publicKey(ctx)
	if err != nil {
		return nil, err
	}
	ethereum := w.isEthereum(tx.ChainID)
	signerAddr, err := address.FromPubKey(w.prefix, pubKey, ethereum)
	if err != nil {
		return nil, err
	}
	if !address.Equal(signerAddr, tx.SignerAddress) {
		return nil, errors.Wrapf(types.ErrAccountNotFound, "KMS key %s controls %s, not %s", w.keyID, signerAddr, tx.SignerAddress)
	}

	doc, err := w.buildDirectSignDoc(tx, codec.EncodePubKeyAny(keyType.Resolve(tx.ChainID), pubKey))
	if err != nil {
		return nil, err
	}
	signBytes := doc.Marshal()

	var digest []byte
	if ethereum {
		digest = crypto.Keccak256(signBytes)
	} else {
		sum := sha256.Sum256(signBytes)
		digest = sum[:]
	}

	out, err := w.client.SignWithContext(ctx, &kms.SignInput{
		KeyId:            aws.String(w.keyID),
		Message:          digest,
		MessageType:      aws.String(kms.MessageTypeDigest),
		SigningAlgorithm: aws.String(kms.SigningAlgorithmSpecEcdsaSha256),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sign with KMS key %s", w.keyID)
	}

	sig, err := derToCompact(out.Signature)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse KMS signature")
	}
	if ethereum {
		if sig, err = appendRecoveryID(digest, sig, pubKey); err != nil {
			return nil, err
		}
	}
	w.logger.Sugar().Debugw("Signed with KMS", zap.String("keyId", w.keyID), zap.Bool("ethereum", ethereum))
	return assembleDirect(doc, sig)
}
