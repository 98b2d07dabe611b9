package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPositionDTO struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
}

func TestParseTradierResponse(t *testing.T) {
	t.Run("single object", func(t *testing.T) {
		body := []byte(`{"positions":{"position":{"symbol":"SPY240621C00450000","quantity":2.0}}}`)

		dtos, err := ParseTradierResponse[testPositionDTO](body)

		require.NoError(t, err)
		require.Len(t, dtos, 1)
		assert.Equal(t, "SPY240621C00450000", dtos[0].Symbol)
		assert.Equal(t, 2.0, dtos[0].Quantity)
	})

	t.Run("list", func(t *testing.T) {
		body := []byte(`{"positions":{"position":[{"symbol":"A","quantity":1},{"symbol":"B","quantity":3}]}}`)

		dtos, err := ParseTradierResponse[testPositionDTO](body)

		require.NoError(t, err)
		require.Len(t, dtos, 2)
		assert.Equal(t, "B", dtos[1].Symbol)
	})

	t.Run("null", func(t *testing.T) {
		dtos, err := ParseTradierResponse[testPositionDTO]([]byte(`{"positions":"null"}`))

		require.NoError(t, err)
		assert.Empty(t, dtos)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseTradierResponse[testPositionDTO]([]byte(`{"a":1,"b":2}`))
		assert.Error(t, err)
	})
}

func TestTags(t *testing.T) {
	tag := EncodeTag(12, "3")
	assert.Equal(t, "tradebox-12-3", tag)
	assert.NoError(t, ValidateTag(tag))

	orderID, attempt, err := DecodeTag(tag)
	require.NoError(t, err)
	assert.Equal(t, uint(12), orderID)
	assert.Equal(t, "3", attempt)

	assert.Error(t, ValidateTag("tradebox_12"))

	_, _, err = DecodeTag("other-1-2")
	assert.Error(t, err)
}
