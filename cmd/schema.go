package cmd

import (
	"strings"

	"db-hub/internal/schema"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect tables, views, routines and triggers",
}

func namesCmd(use, short, header string, list func(*schema.Inspector, *cobra.Command) []string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderNames(list(schema.NewInspector(reg), cmd), header)
		},
	}
}

var schemaColumnsCmd = &cobra.Command{
	Use:   "columns TABLE",
	Short: "Describe the columns of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cols := schema.NewInspector(reg).Columns(cmd.Context(), target, args[0])
		return render(cols, []string{"COLUMN", "TYPE", "NULLABLE", "DEFAULT", "IDENTITY"}, func() [][]string {
			rows := make([][]string, len(cols))
			for i, c := range cols {
				def := ""
				if c.Default != nil {
					def = *c.Default
				}
				rows[i] = []string{c.Name, c.DeclaredType, yesNo(c.Nullable), def, yesNo(c.Identity)}
			}
			return rows
		})
	},
}

var schemaPKCmd = &cobra.Command{
	Use:   "pk TABLE",
	Short: "Show the primary key columns of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderNames(schema.NewInspector(reg).PrimaryKey(cmd.Context(), target, args[0]), "COLUMN")
	},
}

var schemaFKsCmd = &cobra.Command{
	Use:   "fks TABLE",
	Short: "Show the foreign keys of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fks := schema.NewInspector(reg).ForeignKeys(cmd.Context(), target, args[0])
		return render(fks, []string{"NAME", "COLUMN", "REFERENCES"}, func() [][]string {
			rows := make([][]string, len(fks))
			for i, fk := range fks {
				rows[i] = []string{fk.Name, fk.Column, fk.RefTable + "." + fk.RefColumn}
			}
			return rows
		})
	},
}

var schemaIndexesCmd = &cobra.Command{
	Use:   "indexes TABLE",
	Short: "Show the indexes of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx := schema.NewInspector(reg).Indexes(cmd.Context(), target, args[0])
		return render(idx, []string{"NAME", "COLUMNS", "UNIQUE"}, func() [][]string {
			rows := make([][]string, len(idx))
			for i, x := range idx {
				rows[i] = []string{x.Name, strings.Join(x.Columns, ", "), yesNo(x.Unique)}
			}
			return rows
		})
	},
}

func routinesCmd(use, short string, list func(*schema.Inspector, *cobra.Command) []*schema.Routine) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			routines := list(schema.NewInspector(reg), cmd)
			return render(routines, []string{"NAME", "TYPE", "DETAIL"}, func() [][]string {
				rows := make([][]string, len(routines))
				for i, r := range routines {
					rows[i] = []string{r.Name, r.Type, r.Extra}
				}
				return rows
			})
		},
	}
}

var schemaTriggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "List triggers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		triggers := schema.NewInspector(reg).ListTriggers(cmd.Context(), target)
		return render(triggers, []string{"NAME", "TABLE", "EVENT"}, func() [][]string {
			rows := make([][]string, len(triggers))
			for i, t := range triggers {
				rows[i] = []string{t.Name, t.Table, t.Event}
			}
			return rows
		})
	},
}

func init() {
	RootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(
		namesCmd("tables", "List base tables", "TABLE", func(i *schema.Inspector, cmd *cobra.Command) []string {
			return i.ListTables(cmd.Context(), target)
		}),
		namesCmd("views", "List views", "VIEW", func(i *schema.Inspector, cmd *cobra.Command) []string {
			return i.ListViews(cmd.Context(), target)
		}),
		schemaColumnsCmd,
		schemaPKCmd,
		schemaFKsCmd,
		schemaIndexesCmd,
		routinesCmd("procedures", "List stored procedures", func(i *schema.Inspector, cmd *cobra.Command) []*schema.Routine {
			return i.ListProcedures(cmd.Context(), target)
		}),
		routinesCmd("functions", "List functions", func(i *schema.Inspector, cmd *cobra.Command) []*schema.Routine {
			return i.ListFunctions(cmd.Context(), target)
		}),
		schemaTriggersCmd,
	)
}
