package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EarningsState is the input side of an earnings calculation.
type EarningsState struct {
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	StartTime  time.Time       `json:"startTime"`
	PiPrice    float64         `json:"piPrice"`
}

// Projection holds the figures derived from an hourly rate.
// TotalLocal is nil when the rates needed for it were unavailable;
// TotalCustom is nil when no custom currency is usable.
type Projection struct {
	Daily          decimal.Decimal  `json:"daily"`
	Weekly         decimal.Decimal  `json:"weekly"`
	Monthly        decimal.Decimal  `json:"monthly"`
	Yearly         decimal.Decimal  `json:"yearly"`
	ElapsedMinutes decimal.Decimal  `json:"elapsedMinutes"`
	TotalPi        decimal.Decimal  `json:"totalPi"`
	TotalLocal     *decimal.Decimal `json:"totalLocal,omitempty"`
	TotalCustom    *decimal.Decimal `json:"totalCustom,omitempty"`
}
