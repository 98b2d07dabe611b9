package eventmodels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionSymbol(t *testing.T) {
	t.Run("builds an OCC symbol", func(t *testing.T) {
		symbol, err := NewOptionSymbol(OptionSymbolComponents{
			Underlying:  "spy",
			Expiration:  time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC),
			OptionType:  Call,
			StrikePrice: 450,
		})

		require.NoError(t, err)
		assert.Equal(t, OptionSymbol("SPY240621C00450000"), symbol)
	})

	t.Run("fractional strikes are not truncated", func(t *testing.T) {
		symbol, err := NewOptionSymbol(OptionSymbolComponents{
			Underlying:  "F",
			Expiration:  time.Date(2025, time.January, 17, 0, 0, 0, 0, time.UTC),
			OptionType:  Put,
			StrikePrice: 12.1,
		})

		require.NoError(t, err)
		assert.Equal(t, OptionSymbol("F250117P00012100"), symbol)
	})

	t.Run("parses back into components", func(t *testing.T) {
		components, err := ParseOptionSymbol("SPXW240607C05305000")

		require.NoError(t, err)
		assert.Equal(t, "SPXW", components.Underlying)
		assert.Equal(t, Call, components.OptionType)
		assert.Equal(t, 5305.0, components.StrikePrice)
		assert.Equal(t, "2024-06-07", components.Expiration.Format("2006-01-02"))
	})

	t.Run("rejects malformed symbols", func(t *testing.T) {
		_, err := ParseOptionSymbol("SPY")
		assert.Error(t, err)

		_, err = ParseOptionSymbol("SPY240621X00450000")
		assert.Error(t, err)
	})

	t.Run("description", func(t *testing.T) {
		desc, err := OptionSymbol("AAPL240719P00190000").Description()

		require.NoError(t, err)
		assert.Equal(t, "AAPL Jul 19 2024 $190.00 Put", desc)
	})
}
