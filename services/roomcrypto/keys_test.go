package roomcrypto

import (
	"Moneta/models/game"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeRoomKeys(t *testing.T) {
	kr := NewKeyRegistry()

	keys, err := kr.InitializeRoomKeys("ABC234", []string{"TSLA", "GOLD", "BTC"})
	require.NoError(t, err)
	assert.Len(t, keys.Key, SessionKeyBytes)

	// Indices follow lexicographic symbol order and form a bijection.
	assert.Equal(t, []string{"BTC", "GOLD", "TSLA"}, keys.Symbols)
	assert.Equal(t, map[string]int{"BTC": 0, "GOLD": 1, "TSLA": 2}, keys.SymbolIndex)

	state, got := kr.Lookup("ABC234")
	assert.Equal(t, KeysReady, state)
	assert.Equal(t, keys, got)
}

func TestLookupUnknownRoom(t *testing.T) {
	kr := NewKeyRegistry()
	state, keys := kr.Lookup("NOPE99")
	assert.Equal(t, KeysUninitialized, state)
	assert.Nil(t, keys)
}

func TestKeysIndependentPerRoom(t *testing.T) {
	kr := NewKeyRegistry()

	a, err := kr.InitializeRoomKeys("ROOMA2", []string{"GOLD"})
	require.NoError(t, err)
	b, err := kr.InitializeRoomKeys("ROOMB2", []string{"GOLD"})
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
}

func TestEncryptPriceData(t *testing.T) {
	kr := NewKeyRegistry()

	t.Run("keys not ready", func(t *testing.T) {
		_, err := kr.EncryptPriceData("GHOST1", game.PriceSnapshot{"GOLD": 1850})
		assert.ErrorIs(t, err, ErrKeysNotReady)
	})

	keys, err := kr.InitializeRoomKeys("ROOM42", []string{"GOLD", "BTC", "TSLA"})
	require.NoError(t, err)

	t.Run("dense array with zero sentinels", func(t *testing.T) {
		// TSLA has no price this month; its slot must decode to 0.0.
		payload, err := kr.EncryptPriceData("ROOM42", game.PriceSnapshot{
			"GOLD": 1850.5,
			"BTC":  42000,
		})
		require.NoError(t, err)

		plaintext, err := Decrypt(payload, keys.Key)
		require.NoError(t, err)

		var prices []float64
		require.NoError(t, json.Unmarshal(plaintext, &prices))
		require.Len(t, prices, 3)
		assert.Equal(t, 42000.0, prices[keys.SymbolIndex["BTC"]])
		assert.Equal(t, 1850.5, prices[keys.SymbolIndex["GOLD"]])
		assert.Equal(t, 0.0, prices[keys.SymbolIndex["TSLA"]])
	})

	t.Run("unknown symbols ignored", func(t *testing.T) {
		payload, err := kr.EncryptPriceData("ROOM42", game.PriceSnapshot{
			"GOLD":    1900,
			"UNKNOWN": 7,
		})
		require.NoError(t, err)

		plaintext, err := Decrypt(payload, keys.Key)
		require.NoError(t, err)

		var prices []float64
		require.NoError(t, json.Unmarshal(plaintext, &prices))
		assert.Len(t, prices, 3)
	})
}

func TestCleanupRoomKeys(t *testing.T) {
	kr := NewKeyRegistry()

	keys, err := kr.InitializeRoomKeys("ROOM77", []string{"GOLD"})
	require.NoError(t, err)

	kr.CleanupRoomKeys("ROOM77")

	state, _ := kr.Lookup("ROOM77")
	assert.Equal(t, KeysUninitialized, state)

	// The backing array is zeroed so no copy of the key survives.
	for _, b := range keys.Key {
		assert.Zero(t, b)
	}

	// Cleaning an unknown room is a no-op.
	kr.CleanupRoomKeys("ROOM77")
}
