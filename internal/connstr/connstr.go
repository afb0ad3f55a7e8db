// Package connstr parses and rebuilds database connection strings structurally.
//
// It accepts URL forms (including SQLAlchemy style "scheme+driver://"), native MySQL DSNs
// and SQL Server ADO strings, and renders the DSN each Go driver expects.
package connstr

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"db-hub/internal/dberr"
	"db-hub/internal/dialect"

	"github.com/go-sql-driver/mysql"
	"github.com/microsoft/go-mssqldb/msdsn"
	go_ora "github.com/sijms/go-ora/v2"
)

// ConnString is a parsed connection string.
type ConnString struct {
	Scheme   string
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Params   url.Values
}

var defaultPorts = map[string]int{
	"mysql":     3306,
	"postgres":  5432,
	"sqlserver": 1433,
	"oracle":    1521,
}

// Parse reads a connection string in any of the supported forms.
func Parse(raw string) (ConnString, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ConnString{}, &dberr.ValidationError{Field: "connection_string", Reason: "empty"}
	}

	if strings.Contains(raw, "://") {
		return parseURL(raw)
	}
	if strings.Contains(raw, "@tcp(") || strings.Contains(raw, "@unix(") {
		return parseMySQLDSN(raw)
	}
	if strings.Contains(raw, ";") && strings.Contains(raw, "=") {
		return parseADO(raw)
	}
	return ConnString{}, &dberr.ValidationError{Field: "connection_string", Reason: "unrecognized format"}
}

func parseURL(raw string) (ConnString, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ConnString{}, &dberr.ValidationError{Field: "connection_string", Reason: err.Error()}
	}

	// SQLAlchemy style: mysql+pymysql, postgresql+psycopg2, mssql+pyodbc
	t, ok := dialect.FromScheme(u.Scheme)
	if !ok {
		return ConnString{}, &dberr.ValidationError{Field: "connection_string", Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	canonical := string(t)
	cs := ConnString{
		Scheme: canonical,
		Host:   u.Hostname(),
		Params: u.Query(),
	}
	if u.User != nil {
		cs.User = u.User.Username()
		cs.Password, _ = u.User.Password()
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return ConnString{}, &dberr.ValidationError{Field: "connection_string", Reason: fmt.Sprintf("invalid port %q", p)}
		}
		cs.Port = port
	} else {
		cs.Port = defaultPorts[canonical]
	}

	cs.Database = strings.TrimPrefix(u.Path, "/")
	if canonical == "sqlserver" {
		// sqlserver://host?database=x is the driver's own form, a path is the SQLAlchemy form.
		if db := cs.Params.Get("database"); db != "" {
			cs.Database = db
		}
		cs.Params.Del("database")
	}
	return cs, nil
}

func parseMySQLDSN(raw string) (ConnString, error) {
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		return ConnString{}, &dberr.ValidationError{Field: "connection_string", Reason: err.Error()}
	}

	cs := ConnString{
		Scheme:   "mysql",
		User:     cfg.User,
		Password: cfg.Passwd,
		Database: cfg.DBName,
		Params:   url.Values{},
	}
	host, port, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		cs.Host = cfg.Addr
		cs.Port = defaultPorts["mysql"]
	} else {
		cs.Host = host
		cs.Port, _ = strconv.Atoi(port)
	}
	for k, v := range cfg.Params {
		cs.Params.Set(k, v)
	}
	return cs, nil
}

// adoKeys are consumed by msdsn into dedicated fields.
var adoKeys = map[string]bool{
	"server": true, "data source": true, "address": true, "addr": true, "network address": true,
	"database": true, "initial catalog": true,
	"user id": true, "uid": true, "user": true,
	"password": true, "pwd": true,
	"port": true,
}

func parseADO(raw string) (ConnString, error) {
	cfg, err := msdsn.Parse(raw)
	if err != nil {
		return ConnString{}, &dberr.ValidationError{Field: "connection_string", Reason: err.Error()}
	}

	cs := ConnString{
		Scheme:   "sqlserver",
		User:     cfg.User,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     int(cfg.Port),
		Database: cfg.Database,
		Params:   url.Values{},
	}
	if cs.Port == 0 {
		cs.Port = defaultPorts["sqlserver"]
	}
	for _, part := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || adoKeys[k] {
			continue
		}
		cs.Params.Set(k, strings.TrimSpace(v))
	}
	return cs, nil
}

// WithDatabase returns a copy targeting another database on the same server.
func (c ConnString) WithDatabase(name string) ConnString {
	out := c
	out.Database = name
	out.Params = cloneValues(c.Params)
	return out
}

// Address returns host:port.
func (c ConnString) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DriverDSN renders the DSN the Go driver for t expects.
func (c ConnString) DriverDSN(t dialect.Type) (string, error) {
	switch t {
	case dialect.MySQL:
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = c.Address()
		cfg.DBName = c.Database
		if len(c.Params) > 0 {
			cfg.Params = make(map[string]string, len(c.Params))
			for k := range c.Params {
				cfg.Params[k] = c.Params.Get(k)
			}
		}
		return cfg.FormatDSN(), nil

	case dialect.Postgres:
		params := cloneValues(c.Params)
		// lib/pq defaults to sslmode=require, local servers rarely offer TLS.
		if params.Get("sslmode") == "" {
			params.Set("sslmode", "disable")
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Address(),
			Path:     "/" + c.Database,
			RawQuery: params.Encode(),
		}
		return u.String(), nil

	case dialect.SQLServer:
		params := cloneValues(c.Params)
		if c.Database != "" {
			params.Set("database", c.Database)
		}
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Address(),
			RawQuery: params.Encode(),
		}
		return u.String(), nil

	case dialect.Oracle:
		var options map[string]string
		if len(c.Params) > 0 {
			options = make(map[string]string, len(c.Params))
			for k := range c.Params {
				options[k] = c.Params.Get(k)
			}
		}
		return go_ora.BuildUrl(c.Host, c.Port, c.Database, c.User, c.Password, options), nil
	}
	return "", &dberr.InvalidDialectError{Dialect: string(t), Reason: "no driver DSN format"}
}

func (c ConnString) url() *url.URL {
	u := &url.URL{
		Scheme:   c.Scheme,
		Host:     c.Address(),
		RawQuery: c.Params.Encode(),
	}
	if c.Database != "" {
		u.Path = "/" + c.Database
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	return u
}

// String renders the connection string in URL form, password included.
func (c ConnString) String() string {
	return c.url().String()
}

// Redacted renders the connection string with the password masked, safe for logs.
func (c ConnString) Redacted() string {
	return c.url().Redacted()
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
