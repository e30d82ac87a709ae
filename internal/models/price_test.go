package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceSample_WireFormat(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 500, time.Local)
	s := NewPriceSample(ts, 1.234567)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":"2025-03-14 09:26:53","price":1.234567}`, string(data))
}

func TestPriceSample_UnmarshalBadTime(t *testing.T) {
	var s PriceSample
	err := json.Unmarshal([]byte(`{"time":"yesterday","price":1}`), &s)
	require.Error(t, err)
}

func TestExchangeRates_Ready(t *testing.T) {
	assert.False(t, ExchangeRates{}.Ready())
	assert.False(t, ExchangeRates{PiUSD: 0.5}.Ready())
	assert.False(t, ExchangeRates{USDToLocal: 30}.Ready())
	assert.True(t, ExchangeRates{PiUSD: 0.5, USDToLocal: 30}.Ready())
}
