package earnings

import (
	"fmt"
	"strings"

	"github.com/kjannette/pi-tracker/internal/models"
)

const CustomNA = "Total Earnings in Custom Currency: N/A"

// Lines is the rendered text of one calculation.
type Lines struct {
	Daily   string `json:"daily"`
	Weekly  string `json:"weekly"`
	Monthly string `json:"monthly"`
	Yearly  string `json:"yearly"`
	Elapsed string `json:"elapsed"`
	// Total and Custom are empty when the projection carries no value for them.
	Total  string `json:"total,omitempty"`
	Custom string `json:"custom"`
}

// Format renders p. localSymbol follows the local total; the custom total is
// labelled with the upper-cased code and followed by customSymbol.
func Format(p models.Projection, localSymbol, customCode, customSymbol string) Lines {
	l := Lines{
		Daily:   fmt.Sprintf("Daily Earnings: %s Pi", p.Daily.StringFixed(6)),
		Weekly:  fmt.Sprintf("Weekly Earnings: %s Pi", p.Weekly.StringFixed(6)),
		Monthly: fmt.Sprintf("Monthly Earnings: %s Pi", p.Monthly.StringFixed(6)),
		Yearly:  fmt.Sprintf("Yearly Earnings: %s Pi", p.Yearly.StringFixed(6)),
		Elapsed: fmt.Sprintf("Elapsed Time: %s minutes", p.ElapsedMinutes.StringFixed(2)),
		Custom:  CustomNA,
	}
	if p.TotalLocal != nil {
		l.Total = fmt.Sprintf("Total Earnings: %s %s", p.TotalLocal.StringFixed(2), localSymbol)
	}
	if p.TotalCustom != nil {
		l.Custom = strings.TrimSpace(fmt.Sprintf("Total Earnings in %s: %s %s",
			strings.ToUpper(strings.TrimSpace(customCode)), p.TotalCustom.StringFixed(2), customSymbol))
	}
	return l
}
