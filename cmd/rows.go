package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"db-hub/internal/dberr"
	"db-hub/internal/engine"

	"github.com/spf13/cobra"
)

var (
	pkJSON     string
	valuesJSON string
)

var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Update or delete a single row by primary key",
}

var rowsUpdateCmd = &cobra.Command{
	Use:     "update TABLE",
	Short:   "Update one row",
	Example: `  dbhub rows update orders --pk '{"id": 42}' --values '{"status": "shipped"}'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := decodeObject("primary_key", pkJSON)
		if err != nil {
			return err
		}
		values, err := decodeObject("values", valuesJSON)
		if err != nil {
			return err
		}
		ok, err := engine.NewMutator(reg).UpdateRow(cmd.Context(), target, args[0], pk, values)
		if err != nil {
			return err
		}
		return reportRow(ok, "updated")
	},
}

var rowsDeleteCmd = &cobra.Command{
	Use:     "delete TABLE",
	Short:   "Delete one row",
	Example: `  dbhub rows delete orders --pk '{"id": 42}'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := decodeObject("primary_key", pkJSON)
		if err != nil {
			return err
		}
		ok, err := engine.NewMutator(reg).DeleteRow(cmd.Context(), target, args[0], pk)
		if err != nil {
			return err
		}
		return reportRow(ok, "deleted")
	},
}

func reportRow(ok bool, verb string) error {
	if jsonOutput() {
		return printJSON(os.Stdout, map[string]bool{"success": ok})
	}
	if ok {
		fmt.Fprintf(os.Stdout, "Row %s\n", verb)
	} else {
		fmt.Fprintln(os.Stdout, "No matching row")
	}
	return nil
}

// decodeObject parses a JSON object, keeping integers exact.
func decodeObject(field, raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, &dberr.ValidationError{Field: field, Reason: fmt.Sprintf("invalid JSON object: %v", err)}
	}
	for k, v := range m {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				m[k] = i
			} else if f, err := n.Float64(); err == nil {
				m[k] = f
			}
		}
	}
	return m, nil
}

func init() {
	RootCmd.AddCommand(rowsCmd)
	rowsCmd.AddCommand(rowsUpdateCmd, rowsDeleteCmd)
	rowsCmd.PersistentFlags().StringVar(&pkJSON, "pk", "", "primary key columns as a JSON object")
	rowsUpdateCmd.Flags().StringVar(&valuesJSON, "values", "", "new column values as a JSON object")
}
