// Package sheets declares the outbound port for exporting reports to a
// spreadsheet and the flattening of reports into tables.
package sheets

import "context"

// Table is a report flattened to rows of cells. Header is written first.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReportWriter writes a table to a named tab, replacing any previous
// content of that tab.
type ReportWriter interface {
	WriteReport(ctx context.Context, title string, t Table) error
}
