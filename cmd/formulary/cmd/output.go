package cmd

import (
	"encoding/json"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/solatis/formulary/internal/formula"
)

// blankCell is how a nil value appears in tables.
const blankCell = "(blank)"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

// displayValue renders an evaluated value for a table cell.
func displayValue(v any) string {
	switch v.(type) {
	case nil:
		return blankCell
	case string:
		b, _ := json.Marshal(v)
		return string(b)
	default:
		return formula.ToText(v)
	}
}
