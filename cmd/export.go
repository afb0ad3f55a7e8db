package cmd

import (
	"fmt"
	"io"
	"os"

	"db-hub/internal/dialect"
	"db-hub/internal/export"

	"github.com/gosuri/uiprogress"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	exportFile       string
	exportSchemaOnly bool
	exportQuiet      bool
	exportOpts       export.Options
)

var exportCmd = &cobra.Command{
	Use:   "export [DATABASE]",
	Short: "Export a database as a SQL dump",
	Long: `Export a database as portable SQL text. MySQL and PostgreSQL are dumped with
mysqldump and pg_dump, SQL Server dumps are built from catalog metadata.
Without any object selection every table is exported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbName := database
		if len(args) == 1 {
			dbName = args[0]
		}
		if dbName == "" {
			if cs, _, err := reg.Resolve(target); err == nil {
				dbName = cs.Database
			}
		}

		opts, err := exporterOptions()
		if err != nil {
			return err
		}

		// The bar is created on the first report, once the object count is known.
		progress := uiprogress.New()
		progress.SetOut(os.Stderr)
		var bar *uiprogress.Bar
		if !exportQuiet {
			opts = append(opts, export.WithProgress(func(done, total int) {
				if total == 0 {
					return
				}
				if bar == nil {
					bar = progress.AddBar(total).AppendCompleted().PrependElapsed()
					bar.PrependFunc(func(b *uiprogress.Bar) string {
						return "Exporting: "
					})
					progress.Start()
				}
				bar.Set(done)
			}))
		}

		eo := exportOpts
		eo.IncludeData = !exportSchemaOnly

		path, err := export.New(reg, opts...).Export(cmd.Context(), target, dbName, eo)
		if bar != nil {
			progress.Stop()
		}
		if err != nil {
			return err
		}
		defer os.Remove(path)

		return copyArtifact(path, exportFile)
	},
}

func exporterOptions() ([]export.Option, error) {
	myArgs, err := conf.Export.MySQLDump.Args()
	if err != nil {
		return nil, err
	}
	pgArgs, err := conf.Export.PgDump.Args()
	if err != nil {
		return nil, err
	}
	return []export.Option{
		export.WithTempDir(conf.Export.TmpDir),
		export.WithToolPath(dialect.MySQL, conf.Export.MySQLDump.Path),
		export.WithToolPath(dialect.Postgres, conf.Export.PgDump.Path),
		export.WithExtraArgs(dialect.MySQL, myArgs),
		export.WithExtraArgs(dialect.Postgres, pgArgs),
	}, nil
}

// copyArtifact streams the dump to dest, or stdout when dest is empty.
func copyArtifact(path, dest string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	var w io.Writer = os.Stdout
	if dest != "" {
		f, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
		defer f.Close()
		w = f
	}

	n, err := io.Copy(w, src)
	if err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	if dest != "" {
		log.WithFields(log.Fields{"file": dest, "bytes": n}).Info("Dump written")
	}
	return nil
}

func init() {
	RootCmd.AddCommand(exportCmd)

	f := exportCmd.Flags()
	f.StringVarP(&exportFile, "file", "f", "", "write the dump to a file instead of stdout")
	f.BoolVar(&exportSchemaOnly, "schema-only", false, "export structure without data")
	f.BoolVarP(&exportQuiet, "quiet", "q", false, "do not show progress")
	f.StringSliceVarP(&exportOpts.Tables, "tables", "t", nil, "tables to export (comma-separated)")
	f.StringSliceVar(&exportOpts.Views, "views", nil, "views to export")
	f.StringSliceVar(&exportOpts.Procedures, "procedures", nil, "stored procedures to export")
	f.StringSliceVar(&exportOpts.Functions, "functions", nil, "functions to export")
	f.StringSliceVar(&exportOpts.Triggers, "triggers", nil, "triggers to export")
}
