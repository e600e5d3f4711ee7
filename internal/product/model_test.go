package product

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_Decode(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		var p Product
		err := json.Unmarshal([]byte(`{"_id":"p1","model":"Trail Runner","price":1000,"discountPrice":100,"image":"a.png"}`), &p)

		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
		assert.Equal(t, "Trail Runner", p.DisplayName())
		assert.True(t, p.Price.Valid)
		assert.Equal(t, "1000", p.Price.Decimal.String())
		assert.True(t, p.HasDiscount())
	})

	t.Run("MissingDiscountAndName", func(t *testing.T) {
		var p Product
		err := json.Unmarshal([]byte(`{"_id":"p2","price":500}`), &p)

		require.NoError(t, err)
		assert.False(t, p.DiscountPrice.Valid)
		assert.False(t, p.HasDiscount())
		assert.Equal(t, UnknownName, p.DisplayName())
	})

	t.Run("NullPrice", func(t *testing.T) {
		var p Product
		err := json.Unmarshal([]byte(`{"_id":"p3","price":null,"discountPrice":0}`), &p)

		require.NoError(t, err)
		assert.False(t, p.Price.Valid)
		assert.True(t, p.DiscountPrice.Valid)
		assert.False(t, p.HasDiscount())
	})
}
