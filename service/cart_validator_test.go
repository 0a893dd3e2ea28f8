package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-gateway/models"
)

func TestFilterValid_DropsNullAndPartialProducts(t *testing.T) {
	cart := &models.RawCart{Items: []models.CartLineItem{
		lineItem("p1", "Tee", "", 500, 1),
		{Product: nil, Quantity: 1},
		{Product: &models.ProductRef{ID: "p2"}, Quantity: 1},
		{Product: &models.ProductRef{Name: "nameless"}, Quantity: 1},
		lineItem("p3", "Cap", models.WholesaleCategory, 200, 2),
	}}

	valid := FilterValid(cart)

	require.Len(t, valid, 2)
	assert.Equal(t, "p1", valid[0].ProductID())
	assert.Equal(t, "p3", valid[1].ProductID())
	assert.Equal(t, 3, InvalidCount(cart))
}

func TestFilterValid_Idempotent(t *testing.T) {
	cart := &models.RawCart{Items: []models.CartLineItem{
		{Product: nil},
		lineItem("p1", "Tee", "", 500, 1),
		lineItem("p2", "Cap", "", 100, 1),
	}}

	once := FilterValid(cart)
	twice := FilterValid(&models.RawCart{Items: once})

	assert.Equal(t, once, twice)
	assert.Equal(t, 0, InvalidCount(&models.RawCart{Items: once}))
}

func TestFilterValid_NilCart(t *testing.T) {
	assert.Empty(t, FilterValid(nil))
	assert.Equal(t, 0, InvalidCount(nil))
}
