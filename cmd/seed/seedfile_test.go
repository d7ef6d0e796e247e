package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/service"
)

func TestParseSeed_Markets(t *testing.T) {
	data := []byte(`
- name: Balogun Market
  location: Lagos Island
  lat: 6.4541
  lng: 3.3947
- name: Wuse Market
  location: Abuja
`)
	var markets []marketSeed
	require.NoError(t, parseSeed(data, &markets))
	require.Len(t, markets, 2)

	assert.Equal(t, "Balogun Market", markets[0].Name)
	require.NotNil(t, markets[0].Latitude)
	assert.InDelta(t, 6.4541, *markets[0].Latitude, 1e-9)
	assert.Nil(t, markets[1].Longitude)
}

func TestParseSeed_ProductRowsDecodeDecimalPrices(t *testing.T) {
	data := []byte(`
- name: Rice 50kg
  category: Grains
  price: 15000.50
- name: Palm Oil
  price: "2300"
  market: Wuse Market
`)
	var rows []service.ProductRow
	require.NoError(t, parseSeed(data, &rows))
	require.Len(t, rows, 2)

	assert.True(t, rows[0].Price.Equal(decimal.RequireFromString("15000.50")))
	assert.True(t, rows[1].Price.Equal(decimal.NewFromInt(2300)))
	assert.Equal(t, "Wuse Market", rows[1].MarketName)
}

func TestParseSeed_ShopOwners(t *testing.T) {
	data := []byte(`
- name: Ada
  email: ada@example.com
  shop_name: Ada Provisions
  market: Balogun Market
`)
	var rows []service.ShopOwnerRow
	require.NoError(t, parseSeed(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada Provisions", rows[0].ShopName)
	assert.Empty(t, rows[0].Password)
}

func TestParseSeed_Malformed(t *testing.T) {
	var rows []service.ProductRow
	err := parseSeed([]byte("- name: [unterminated"), &rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse seed YAML")
}

func TestLoadSeedFile_Missing(t *testing.T) {
	var rows []service.ProductRow
	err := loadSeedFile("does-not-exist.yaml", &rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read seed file")
}
