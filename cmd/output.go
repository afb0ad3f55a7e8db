package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

func jsonOutput() bool {
	return strings.EqualFold(outputFmt, "json")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()
}

// render prints v as JSON, or the table built by rows when table output is selected.
func render(v any, header []string, rows func() [][]string) error {
	if jsonOutput() {
		return printJSON(os.Stdout, v)
	}
	printTable(os.Stdout, header, rows())
	return nil
}

func renderNames(names []string, header string) error {
	return render(names, []string{header}, func() [][]string {
		rows := make([][]string, len(names))
		for i, n := range names {
			rows[i] = []string{n}
		}
		return rows
	})
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "0x" + strings.ToUpper(hex.EncodeToString(x))
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
