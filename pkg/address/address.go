// Package address decodes the address encodings a wallet may report (cosmos bech32,
// bitcoin segwit bech32 and 0x-prefixed hex) down to their raw payload so that
// accounts can be matched across prefixes.
package address

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck
)

const hexPrefix = "0x"

// segwit human readable parts carry a witness version ahead of the program
var segwitHRPs = map[string]bool{
	"bc":   true,
	"tb":   true,
	"bcrt": true,
}

// Decoded is an address split into its human readable part and raw payload.
type Decoded struct {
	Prefix  string
	Payload []byte
}

// Decode parses a bech32, segwit or 0x-hex address.
func Decode(addr string) (*Decoded, error) {
	if strings.HasPrefix(addr, hexPrefix) {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid hex address %q", addr)
		}
		return &Decoded{Prefix: hexPrefix, Payload: common.HexToAddress(addr).Bytes()}, nil
	}

	hrp, data, _, err := bech32.DecodeNoLimitWithVersion(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bech32 address %q: %w", addr, err)
	}
	if segwitHRPs[hrp] {
		if len(data) == 0 {
			return nil, fmt.Errorf("segwit address %q has no witness version", addr)
		}
		data = data[1:]
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert address %q: %w", addr, err)
	}
	return &Decoded{Prefix: hrp, Payload: payload}, nil
}

// Equal reports whether two addresses carry the same payload, regardless of prefix or
// encoding. Undecodable addresses are never equal.
func Equal(a, b string) bool {
	da, err := Decode(a)
	if err != nil {
		return false
	}
	db, err := Decode(b)
	if err != nil {
		return false
	}
	return bytes.Equal(da.Payload, db.Payload)
}

// ToBech32 encodes payload under prefix.
func ToBech32(prefix string, payload []byte) (string, error) {
	addr, err := bech32.EncodeFromBase256(prefix, payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode bech32 address: %w", err)
	}
	return addr, nil
}

// EthToBech32 re-encodes a 0x address under a bech32 prefix.
func EthToBech32(ethAddress string, prefix string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(ethAddress, hexPrefix))
	if err != nil {
		return "", fmt.Errorf("invalid hex address %q: %w", ethAddress, err)
	}
	return ToBech32(prefix, raw)
}

// Bech32ToEth renders the payload of a bech32 address as lower case 0x hex.
func Bech32ToEth(addr string) (string, error) {
	d, err := Decode(addr)
	if err != nil {
		return "", err
	}
	return hexPrefix + hex.EncodeToString(d.Payload), nil
}

// CosmosPayload is ripemd160(sha256(pubKey)), the payload of a secp256k1 account.
func CosmosPayload(compressedPubKey []byte) []byte {
	sha := sha256.Sum256(compressedPubKey)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

// EthereumPayload is the keccak address of a secp256k1 key, used by ethsecp256k1 accounts.
func EthereumPayload(compressedPubKey []byte) ([]byte, error) {
	pub, err := crypto.DecompressPubkey(compressedPubKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Bytes(), nil
}

// FromPubKey derives the bech32 account address of a compressed key.
func FromPubKey(prefix string, compressedPubKey []byte, ethereum bool) (string, error) {
	payload := CosmosPayload(compressedPubKey)
	if ethereum {
		var err error
		if payload, err = EthereumPayload(compressedPubKey); err != nil {
			return "", err
		}
	}
	return ToBech32(prefix, payload)
}
