package models

import "time"

// ExchangeRates is the latest applied set of quotes used for earnings.
// A zero rate means the fetch has not completed or failed.
type ExchangeRates struct {
	PiUSD       float64   `json:"piUsd"`
	USDToLocal  float64   `json:"usdToLocal"`
	USDToCustom float64   `json:"usdToCustom"`
	LocalCode   string    `json:"localCode"`
	CustomCode  string    `json:"customCode"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Ready reports whether a local-currency total can be produced.
func (r ExchangeRates) Ready() bool {
	return r.PiUSD != 0 && r.USDToLocal != 0
}

type LockedBalance struct {
	Amount    float64   `json:"amount"`
	FetchedAt time.Time `json:"fetchedAt"`
}
