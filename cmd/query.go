package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"db-hub/internal/engine"

	"github.com/spf13/cobra"
)

var queryFile string

var queryCmd = &cobra.Command{
	Use:   "query [SQL]",
	Short: "Run an ad-hoc SQL statement",
	Long: `Run one SQL statement inside a transaction and print its rows or affected row count.
The statement is read from the arguments, from --file, or from stdin when neither is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := readQuery(args)
		if err != nil {
			return err
		}

		res, err := engine.NewExecutor(reg).Execute(cmd.Context(), target, query)
		if err != nil {
			return err
		}

		if !res.HasRows() {
			if jsonOutput() {
				return printJSON(os.Stdout, res)
			}
			fmt.Printf("%d row(s) affected\n", *res.RowsAffected)
			return nil
		}
		return render(res, res.Columns, func() [][]string {
			rows := make([][]string, len(res.Rows))
			for i, r := range res.Rows {
				row := make([]string, len(res.Columns))
				for j, c := range res.Columns {
					row[j] = formatCell(r[c])
				}
				rows[i] = row
			}
			return rows
		})
	},
}

func readQuery(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	var r io.Reader = os.Stdin
	if queryFile != "" {
		f, err := os.Open(queryFile)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read query: %w", err)
	}
	query := strings.TrimSpace(string(b))
	if query == "" {
		return "", fmt.Errorf("no query given")
	}
	return query, nil
}

func init() {
	RootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryFile, "file", "f", "", "read the statement from a file")
}
