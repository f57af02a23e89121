// Package keyType maps chain ids to the public key type URL their accounts use.
package keyType

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	PubKeySecp256k1          = "/cosmos.crypto.secp256k1.PubKey"
	PubKeyEthermint          = "/ethermint.crypto.v1.ethsecp256k1.PubKey"
	PubKeyInjective          = "/injective.crypto.v1beta1.ethsecp256k1.PubKey"
	PubKeyArtela             = "/artela.crypto.v1.ethsecp256k1.PubKey"
	PubKeySegwit             = "/cosmos.crypto.segwit.PubKey"
	PubKeyEd25519Placeholder = "/cosmos.crypto.ed25519.PubKey"
)

// ethermint chain ids contain {identifier}_{eip155 number}-{version}, e.g. evmos_9001-2
var ethermintChainID = regexp.MustCompile(`(\w+)_(\d+)-(\d+)`)

// Resolve returns the public key type URL for chainID. Resolution is ordered: the
// artela and injective prefixes win over the generic Ethermint pattern.
func Resolve(chainID string) string {
	switch {
	case strings.HasPrefix(chainID, "artela"):
		return PubKeyArtela
	case strings.HasPrefix(chainID, "injective"):
		return PubKeyInjective
	case IsEthermint(chainID):
		return PubKeyEthermint
	default:
		return PubKeySecp256k1
	}
}

// IsEthermint reports whether chainID follows the Ethermint naming scheme.
func IsEthermint(chainID string) bool {
	return ethermintChainID.MatchString(chainID)
}

// ExtractEthChainID returns the EIP-155 chain number embedded in an Ethermint chain id,
// or 0 when chainID is not Ethermint-style.
func ExtractEthChainID(chainID string) uint64 {
	m := ethermintChainID.FindStringSubmatch(chainID)
	if m == nil {
		return 0
	}
	id, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// IsEthereumCurve reports whether keys of typeURL derive Ethereum (keccak) addresses.
func IsEthereumCurve(typeURL string) bool {
	switch typeURL {
	case PubKeyEthermint, PubKeyInjective, PubKeyArtela:
		return true
	}
	return false
}
