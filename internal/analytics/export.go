package analytics

import (
	"strconv"
	"strings"
	"time"

	"ledger-service/internal/model"
)

// CSVHeader is the first line of an exported report.
const CSVHeader = "Date,Type,Amount,Description,Staff,Organization"

// ExportRow is one active log flattened for export.
type ExportRow struct {
	Date         time.Time
	Type         model.LogType
	Amount       float64
	Description  string
	Staff        string
	Organization string
}

// QuoteField wraps a field in double quotes, doubling any embedded
// quote. Fields are always quoted, not just when they contain a
// delimiter, so the format round-trips byte for byte.
func QuoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// BuildCSV renders export rows as delimited text, one line per entry.
// Description and staff fields are quote-escaped; the rest are bare.
func BuildCSV(rows []ExportRow) string {
	var b strings.Builder
	b.WriteString(CSVHeader)
	for i := range rows {
		b.WriteByte('\n')
		b.WriteString(rows[i].Date.Format("2006-01-02"))
		b.WriteByte(',')
		b.WriteString(string(rows[i].Type))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(rows[i].Amount, 'f', 2, 64))
		b.WriteByte(',')
		b.WriteString(QuoteField(rows[i].Description))
		b.WriteByte(',')
		b.WriteString(QuoteField(rows[i].Staff))
		b.WriteByte(',')
		b.WriteString(rows[i].Organization)
	}
	return b.String()
}
