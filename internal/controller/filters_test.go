package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchInput(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		q, f := ParseSearchInput("black running shoes")
		assert.Equal(t, "black running shoes", q)
		assert.Nil(t, f.Category)
		assert.Nil(t, f.MinPrice)
		assert.Nil(t, f.MaxPrice)
	})

	t.Run("all filters", func(t *testing.T) {
		q, f := ParseSearchInput("jacket cat:Outerwear min:20 max:99.5")
		assert.Equal(t, "jacket", q)
		require.NotNil(t, f.Category)
		assert.Equal(t, "Outerwear", *f.Category)
		require.NotNil(t, f.MinPrice)
		assert.Equal(t, 20.0, *f.MinPrice)
		require.NotNil(t, f.MaxPrice)
		assert.Equal(t, 99.5, *f.MaxPrice)
	})

	t.Run("bad price stays in query", func(t *testing.T) {
		q, f := ParseSearchInput("tent max:cheap min:-3")
		assert.Equal(t, "tent max:cheap min:-3", q)
		assert.Nil(t, f.MaxPrice)
		assert.Nil(t, f.MinPrice)
	})

	t.Run("non-finite prices stay in query", func(t *testing.T) {
		q, f := ParseSearchInput("rain jacket max:NaN min:inf")
		assert.Equal(t, "rain jacket max:NaN min:inf", q)
		assert.Nil(t, f.MaxPrice)
		assert.Nil(t, f.MinPrice)

		q, f = ParseSearchInput("boots max:Infinity min:-Inf")
		assert.Equal(t, "boots max:Infinity min:-Inf", q)
		assert.Nil(t, f.MaxPrice)
		assert.Nil(t, f.MinPrice)
	})

	t.Run("unknown keys and empty values are text", func(t *testing.T) {
		q, _ := ParseSearchInput("size:XL category: hat")
		assert.Equal(t, "size:XL category: hat", q)
	})

	t.Run("only filters gives empty query", func(t *testing.T) {
		q, f := ParseSearchInput("category:Footwear")
		assert.Empty(t, q)
		assert.NotNil(t, f.Category)
	})
}
