package wallet

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var (
	secp256k1N     = btcec.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// derToCompact converts an ASN.1 DER ECDSA signature into the 64-byte r||s form Cosmos
// chains verify, normalizing s to the lower half of the curve order.
func derToCompact(der []byte) ([]byte, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, fmt.Errorf("malformed DER signature")
	}
	if r.Sign() <= 0 || s.Sign() <= 0 || r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return nil, fmt.Errorf("signature values out of range")
	}
	if s.Cmp(secp256k1HalfN) > 0 {
		s.Sub(secp256k1N, s)
	}

	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

// appendRecoveryID finds the recovery id that makes sig recover to compressedPubKey and
// returns the 65-byte r||s||v signature with v in {0, 1}.
func appendRecoveryID(hash []byte, sig []byte, compressedPubKey []byte) ([]byte, error) {
	full := make([]byte, 65)
	copy(full, sig)
	for v := byte(0); v < 2; v++ {
		full[64] = v
		recovered, err := crypto.SigToPub(hash, full)
		if err != nil {
			continue
		}
		if bytes.Equal(crypto.CompressPubkey(recovered), compressedPubKey) {
			return full, nil
		}
	}
	return nil, fmt.Errorf("failed to determine recovery ID")
}
