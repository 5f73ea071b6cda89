package board

import (
	"io"
	"time"

	"github.com/rodaine/table"
	"jizdninerad.cz/internal/departures"
)

// WriteTable prints records as an aligned text table.
func WriteTable(w io.Writer, records []departures.DepartureRecord, loc *time.Location) {
	header := Header()
	headerArgs := make([]interface{}, len(header))
	for i, h := range header {
		headerArgs[i] = h
	}

	tbl := table.New(headerArgs...).WithWriter(w)
	for _, row := range Rows(records, loc) {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		tbl.AddRow(cells...)
	}
	tbl.Print()
}
