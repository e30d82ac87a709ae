package tracker

import (
	"fmt"
	"time"

	"github.com/kjannette/pi-tracker/internal/earnings"
)

const lockedPending = "Locked Pi: fetching..."

// Board is the text the user sees. Earnings lines only change when a
// calculation produced a local total; otherwise the previous text stays.
type Board struct {
	Daily        string    `json:"daily"`
	Weekly       string    `json:"weekly"`
	Monthly      string    `json:"monthly"`
	Yearly       string    `json:"yearly"`
	Elapsed      string    `json:"elapsed"`
	Total        string    `json:"total"`
	Custom       string    `json:"custom"`
	Locked       string    `json:"locked"`
	CurrentPrice string    `json:"currentPrice"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

func initialBoard(localSymbol string) Board {
	return Board{
		Daily:        "Daily Earnings: 0 Pi",
		Weekly:       "Weekly Earnings: 0 Pi",
		Monthly:      "Monthly Earnings: 0 Pi",
		Yearly:       "Yearly Earnings: 0 Pi",
		Elapsed:      "Elapsed Time: 0 minutes",
		Total:        fmt.Sprintf("Total Earnings: 0 %s", localSymbol),
		Custom:       earnings.CustomNA,
		Locked:       lockedPending,
		CurrentPrice: "Current Pi Coin Price: $0.00",
	}
}

// apply copies freshly formatted lines onto the board. It reports false and
// leaves the board alone when there is no local total.
func (b *Board) apply(l earnings.Lines, at time.Time) bool {
	if l.Total == "" {
		return false
	}
	b.Daily = l.Daily
	b.Weekly = l.Weekly
	b.Monthly = l.Monthly
	b.Yearly = l.Yearly
	b.Elapsed = l.Elapsed
	b.Total = l.Total
	b.Custom = l.Custom
	b.UpdatedAt = at
	return true
}

// Lines returns the board in display order.
func (b Board) Lines() []string {
	return []string{
		b.Daily, b.Weekly, b.Monthly, b.Yearly,
		b.Elapsed, b.Total, b.Custom, b.Locked, b.CurrentPrice,
	}
}

func lockedLine(amount float64) string {
	return fmt.Sprintf("Locked Pi: %v Pi", amount)
}

func currentPriceLine(price float64) string {
	return fmt.Sprintf("Current Pi Coin Price: $%.6f", price)
}
