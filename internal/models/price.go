package models

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// SampleTimeLayout is the on-disk timestamp format of a price sample.
const SampleTimeLayout = "2006-01-02 15:04:05"

// PriceSample is one observation of the Pi price in USD.
type PriceSample struct {
	Time  time.Time
	Price float64
}

type priceSampleJSON struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

func NewPriceSample(ts time.Time, price float64) PriceSample {
	return PriceSample{Time: ts.Truncate(time.Second), Price: price}
}

func (p PriceSample) MarshalJSON() ([]byte, error) {
	return json.Marshal(priceSampleJSON{
		Time:  p.Time.Format(SampleTimeLayout),
		Price: p.Price,
	})
}

func (p *PriceSample) UnmarshalJSON(data []byte) error {
	var raw priceSampleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.ParseInLocation(SampleTimeLayout, raw.Time, time.Local)
	if err != nil {
		return errors.Wrapf(err, "parse sample time %q", raw.Time)
	}
	p.Time = ts
	p.Price = raw.Price
	return nil
}
