package cmd

import (
	"fmt"
	"net/url"
	"time"

	"db-hub/internal/bootstrap"
	"db-hub/internal/connstr"
	"db-hub/internal/dialect"
	"db-hub/internal/registry"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host         string            `mapstructure:"host"`
	Port         int               `mapstructure:"port"`
	User         string            `mapstructure:"user"`
	Password     string            `mapstructure:"password"`
	Database     string            `mapstructure:"database"`
	RootPassword string            `mapstructure:"root_password"`
	Params       map[string]string `mapstructure:"params"`
}

type PoolConfig struct {
	MaxSize          int           `mapstructure:"max_size"`
	Overflow         int           `mapstructure:"overflow"`
	Recycle          time.Duration `mapstructure:"recycle"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
}

type ToolConfig struct {
	Path      string `mapstructure:"path"`
	ExtraArgs string `mapstructure:"extra_args"`
}

type ExportConfig struct {
	TmpDir    string     `mapstructure:"tmp_dir"`
	MySQLDump ToolConfig `mapstructure:"mysqldump"`
	PgDump    ToolConfig `mapstructure:"pg_dump"`
}

type BootstrapConfig struct {
	GrantPrivileges bool          `mapstructure:"grant_privileges"`
	Attempts        int           `mapstructure:"attempts"`
	Delay           time.Duration `mapstructure:"delay"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type Config struct {
	MySQL     ServerConfig    `mapstructure:"mysql"`
	Postgres  ServerConfig    `mapstructure:"postgres"`
	SQLServer ServerConfig    `mapstructure:"sqlserver"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Export    ExportConfig    `mapstructure:"export"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Log       LogConfig       `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 9306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "mysql")
	v.SetDefault("mysql.root_password", "")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 9432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "postgres")

	v.SetDefault("sqlserver.host", "localhost")
	v.SetDefault("sqlserver.port", 9433)
	v.SetDefault("sqlserver.user", "sa")
	v.SetDefault("sqlserver.password", "")
	v.SetDefault("sqlserver.database", "master")
	v.SetDefault("sqlserver.params", map[string]string{"encrypt": "disable"})

	v.SetDefault("pool.max_size", 5)
	v.SetDefault("pool.overflow", 10)
	v.SetDefault("pool.recycle", time.Hour)
	v.SetDefault("pool.statement_timeout", 30*time.Second)
	v.SetDefault("pool.connect_timeout", 10*time.Second)

	v.SetDefault("export.tmp_dir", "")
	v.SetDefault("export.mysqldump.path", "mysqldump")
	v.SetDefault("export.mysqldump.extra_args", "")
	v.SetDefault("export.pg_dump.path", "pg_dump")
	v.SetDefault("export.pg_dump.extra_args", "")

	v.SetDefault("bootstrap.grant_privileges", true)
	v.SetDefault("bootstrap.attempts", 5)
	v.SetDefault("bootstrap.delay", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// LoadConfig decodes the merged file, env and default settings.
func LoadConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &c, nil
}

func (s ServerConfig) connString(scheme string) connstr.ConnString {
	params := url.Values{}
	for k, v := range s.Params {
		params.Set(k, v)
	}
	return connstr.ConnString{
		Scheme:   scheme,
		User:     s.User,
		Password: s.Password,
		Host:     s.Host,
		Port:     s.Port,
		Database: s.Database,
		Params:   params,
	}
}

// Registry maps the configured servers onto registry slots.
func (c *Config) Registry() registry.Config {
	return registry.Config{
		Connections: map[dialect.Type]connstr.ConnString{
			dialect.MySQL:     c.MySQL.connString("mysql"),
			dialect.Postgres:  c.Postgres.connString("postgres"),
			dialect.SQLServer: c.SQLServer.connString("sqlserver"),
		},
		Pool: registry.PoolConfig{
			MaxSize:          c.Pool.MaxSize,
			Overflow:         c.Pool.Overflow,
			Recycle:          c.Pool.Recycle,
			StatementTimeout: c.Pool.StatementTimeout,
			ConnectTimeout:   c.Pool.ConnectTimeout,
		},
	}
}

func (c *Config) Grant() bootstrap.Config {
	return bootstrap.Config{
		Host:         c.MySQL.Host,
		Port:         c.MySQL.Port,
		RootPassword: c.MySQL.RootPassword,
		User:         c.MySQL.User,
		Attempts:     c.Bootstrap.Attempts,
		Delay:        c.Bootstrap.Delay,
	}
}

// Args splits a tool's extra_args with shell quoting rules.
func (t ToolConfig) Args() ([]string, error) {
	if t.ExtraArgs == "" {
		return nil, nil
	}
	args, err := shellquote.Split(t.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid extra_args %q: %w", t.ExtraArgs, err)
	}
	return args, nil
}
