// Package reporting turns valuation reports into human and machine readable
// output and fans them out to sinks.
package reporting

import (
	"fmt"
	"strings"

	"portfolio-pricing-lab/internal/domain"
)

// RenderTable renders a report as a fixed-width console table.
func RenderTable(report *domain.ValuationReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Portfolio update #%d\n", report.Seq))
	sb.WriteString(fmt.Sprintf("%-25s %10s %15s %15s\n", "TICKER", "QUANTITY", "UNIT PRICE", "VALUE"))

	for _, p := range report.Positions {
		sb.WriteString(fmt.Sprintf("%-25s %10d %15.2f %15.2f\n",
			p.Ticker, p.EffectiveQuantity, p.UnitPrice, p.Value))
	}

	sb.WriteString(fmt.Sprintf("%-25s %10s %15s %15.2f\n", "TOTAL", "", "", report.TotalNAV))

	return sb.String()
}

// RenderCSV renders reports as a CSV string, one row per priced position.
func RenderCSV(reports []*domain.ValuationReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("seq,ticker,unit_price,effective_quantity,value,total_nav\n")

	// Rows
	for _, r := range reports {
		for _, p := range r.Positions {
			sb.WriteString(fmt.Sprintf("%d,%s,%.6f,%d,%.6f,%.6f\n",
				r.Seq,
				p.Ticker,
				p.UnitPrice,
				p.EffectiveQuantity,
				p.Value,
				r.TotalNAV,
			))
		}
	}

	return sb.String()
}
