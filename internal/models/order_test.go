package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		priceType string
		want      Direction
	}{
		{"18", DirectionBuy},
		{"1", DirectionBuy},
		{"BUY", DirectionBuy},
		{"19", DirectionSell},
		{"2", DirectionSell},
		{"SELL", DirectionSell},
		{"M1", DirectionUnknown},
		{"9001", DirectionUnknown},
		{"", DirectionUnknown},
		{"buy", DirectionUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDirection(tt.priceType), "priceType=%q", tt.priceType)
	}
}

func TestOrder_ParsedVolume(t *testing.T) {
	assert.Equal(t, int64(100), (&Order{Volume: "100"}).ParsedVolume())
	assert.Equal(t, int64(200), (&Order{Volume: " 200 "}).ParsedVolume())
	assert.Equal(t, int64(0), (&Order{Volume: "abc"}).ParsedVolume())
	assert.Equal(t, int64(0), (&Order{Volume: "-500"}).ParsedVolume())
	assert.Equal(t, int64(0), (&Order{Volume: ""}).ParsedVolume())
}

func TestOrder_StrategyOrDefault(t *testing.T) {
	assert.Equal(t, "DEFAULT", (&Order{}).StrategyOrDefault())
	assert.Equal(t, "T0-A", (&Order{Strategy: "T0-A"}).StrategyOrDefault())
}

func validOrder() *Order {
	return &Order{
		OrderType: "23",
		PriceType: "18",
		StockCode: "600000",
		Volume:    "1000",
		AccountID: "1001",
	}
}

func TestOrder_ValidateOK(t *testing.T) {
	ok, errs := validOrder().Validate()
	assert.True(t, ok)
	assert.Empty(t, errs)

	prefixed := validOrder()
	prefixed.StockCode = "SH600000"
	ok, _ = prefixed.Validate()
	assert.True(t, ok)
}

func TestOrder_ValidateMissingFields(t *testing.T) {
	ok, errs := (&Order{}).Validate()
	assert.False(t, ok)
	assert.Len(t, errs, 5)
}

func TestOrder_ValidateBadStockCode(t *testing.T) {
	order := validOrder()
	order.StockCode = "60000"
	ok, errs := order.Validate()
	assert.False(t, ok)
	assert.Len(t, errs, 1)

	order.StockCode = "BJ600000"
	ok, _ = order.Validate()
	assert.False(t, ok)
}

func TestOrder_ValidateBadVolume(t *testing.T) {
	order := validOrder()
	order.Volume = "一千"
	ok, errs := order.Validate()
	assert.False(t, ok)
	assert.Len(t, errs, 1)
}

func TestOrder_ValidateUnknownPriceType(t *testing.T) {
	order := validOrder()
	order.PriceType = "99"
	ok, errs := order.Validate()
	assert.False(t, ok)
	assert.Len(t, errs, 1)
}
