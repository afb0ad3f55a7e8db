package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"db-hub/internal/bootstrap"
	"db-hub/internal/connstr"
	"db-hub/internal/dialect"
	"db-hub/internal/registry"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	dialectFlag string
	connFlag    string
	database    string
	outputFmt   string
	logLevel    string

	conf   *Config
	reg    *registry.Registry
	target registry.Target
)

var RootCmd = &cobra.Command{
	Use:   "dbhub",
	Short: "A multi-dialect database gateway",
	Long: `
  ____  ____    _   _ _   _ ____
 |  _ \| __ )  | | | | | | | __ )
 | | | |  _ \  | |_| | | | |  _ \
 | |_| | |_) | |  _  | |_| | |_) |
 |____/|____/  |_| |_|\___/|____/

DB HUB - one interface for MySQL, PostgreSQL and SQL Server
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if err := setupLogging(conf.Log); err != nil {
			return err
		}

		t, err := dialect.Parse(dialectFlag)
		if err != nil {
			return err
		}
		target = registry.Target{Dialect: t, ConnString: connFlag}

		reg = registry.New(conf.Registry())

		if conf.Bootstrap.GrantPrivileges && conf.MySQL.RootPassword != "" && t == dialect.MySQL {
			bootstrap.GrantPrivileges(cmd.Context(), conf.Grant(), nil)
		}

		if database != "" {
			return useDatabase(database)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if reg != nil {
			reg.Close()
		}
	},
}

// useDatabase points the target at another database for this invocation.
func useDatabase(name string) error {
	if target.ConnString == "" && target.Dialect != dialect.Custom {
		return reg.Retarget(target.Dialect, name)
	}
	cs, err := connstr.Parse(target.ConnString)
	if err != nil {
		return fmt.Errorf("--database needs a parseable --conn: %w", err)
	}
	target.ConnString = cs.WithDatabase(name).String()
	return nil
}

func setupLogging(c LogConfig) error {
	level := c.Level
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)
	if c.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults(viper.GetViper())

	// Define flags
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./dbhub.yaml)")
	flags.StringVarP(&dialectFlag, "dialect", "d", "mysql", "database type: mysql, postgres, sqlserver or custom")
	flags.StringVar(&connFlag, "conn", "", "connection string overriding the configured one (required for custom)")
	flags.StringVar(&database, "database", "", "database to use instead of the configured one")
	flags.StringVarP(&outputFmt, "output", "o", "table", "output format: table or json")
	flags.StringVar(&logLevel, "log-level", "", "log level (overrides log.level)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("dbhub")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DBHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("Using config file")
	}
}
