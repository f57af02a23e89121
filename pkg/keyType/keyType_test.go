package keyType

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		chainID  string
		expected string
	}{
		{"cosmoshub-4", PubKeySecp256k1},
		{"osmosis-1", PubKeySecp256k1},
		{"evmos_9001-2", PubKeyEthermint},
		{"dymension_1100-1", PubKeyEthermint},
		{"injective-1", PubKeyInjective},
		{"artela_11822-1", PubKeyArtela},
		{"", PubKeySecp256k1},
	}

	for _, tt := range tests {
		t.Run(tt.chainID, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.chainID))
		})
	}
}

func TestExtractEthChainID(t *testing.T) {
	assert.Equal(t, uint64(9001), ExtractEthChainID("evmos_9001-2"))
	assert.Equal(t, uint64(11822), ExtractEthChainID("artela_11822-1"))
	assert.Equal(t, uint64(0), ExtractEthChainID("cosmoshub-4"))
	assert.Equal(t, uint64(0), ExtractEthChainID("evmos_9001"))
}

func TestIsEthereumCurve(t *testing.T) {
	assert.True(t, IsEthereumCurve(Resolve("evmos_9001-2")))
	assert.True(t, IsEthereumCurve(Resolve("injective-1")))
	assert.False(t, IsEthereumCurve(Resolve("cosmoshub-4")))
	assert.False(t, IsEthereumCurve(PubKeySegwit))
}
