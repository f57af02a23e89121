package address

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_CrossPrefixEquality(t *testing.T) {
	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = byte(i)
	}

	cosmos, err := ToBech32("cosmos", payload)
	require.NoError(t, err)
	osmo, err := ToBech32("osmo", payload)
	require.NoError(t, err)

	d, err := Decode(cosmos)
	require.NoError(t, err)
	assert.Equal(t, "cosmos", d.Prefix)
	assert.Equal(t, payload, d.Payload)

	assert.True(t, Equal(cosmos, osmo))
	assert.False(t, Equal(cosmos, "not-an-address"))

	other, err := ToBech32("cosmos", make([]byte, 20))
	require.NoError(t, err)
	assert.False(t, Equal(cosmos, other))
}

func TestEthToBech32_RoundTrip(t *testing.T) {
	eth := "0x00000000000000000000000000000000000000ff"
	evmos, err := EthToBech32(eth, "evmos")
	require.NoError(t, err)

	back, err := Bech32ToEth(evmos)
	require.NoError(t, err)
	assert.Equal(t, eth, back)
	assert.True(t, Equal(eth, evmos))
}

func TestDecode_Segwit(t *testing.T) {
	// BIP-173 test vector
	d, err := Decode("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4")
	require.NoError(t, err)
	assert.Equal(t, "bc", d.Prefix)
	assert.Len(t, d.Payload, 20)

	cosmos, err := ToBech32("cosmos", d.Payload)
	require.NoError(t, err)
	assert.True(t, Equal("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", cosmos))
}

func TestDecode_InvalidHex(t *testing.T) {
	_, err := Decode("0x1234")
	assert.Error(t, err)
}

func TestFromPubKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	compressed := crypto.CompressPubkey(&key.PublicKey)

	ethAddr, err := FromPubKey("evmos", compressed, true)
	require.NoError(t, err)
	assert.True(t, Equal(ethAddr, crypto.PubkeyToAddress(key.PublicKey).Hex()))

	cosmosAddr, err := FromPubKey("cosmos", compressed, false)
	require.NoError(t, err)
	d, err := Decode(cosmosAddr)
	require.NoError(t, err)
	assert.Equal(t, CosmosPayload(compressed), d.Payload)
	assert.False(t, Equal(ethAddr, cosmosAddr))
}
