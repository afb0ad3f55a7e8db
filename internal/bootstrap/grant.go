// Package bootstrap prepares the MySQL server before the gateway starts serving.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"db-hub/internal/registry"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"
)

// Config describes the root account used to grant privileges to the application user.
type Config struct {
	Host         string
	Port         int
	RootPassword string
	User         string
	Attempts     int
	Delay        time.Duration
}

// Access denied for the root account will not get better by retrying.
var permanentCodes = map[uint16]bool{1045: true, 1698: true}

func (c Config) dsn() string {
	mc := mysql.NewConfig()
	mc.User = "root"
	mc.Passwd = c.RootPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.Timeout = 10 * time.Second
	return mc.FormatDSN()
}

// GrantPrivileges gives the application user all privileges on every database. Failures
// are logged, never returned, so startup carries on. It reports whether the grant went through.
func GrantPrivileges(ctx context.Context, cfg Config, open registry.Opener) bool {
	if cfg.User == "" || cfg.User == "root" {
		return false
	}
	if open == nil {
		open = sql.Open
	}
	logger := log.WithFields(log.Fields{"user": cfg.User, "host": cfg.Host})

	db, err := open("mysql", cfg.dsn())
	if err != nil {
		logger.Warnf("Failed to open MySQL for privilege grant: %v", err)
		return false
	}
	defer db.Close()

	user := "'" + strings.ReplaceAll(cfg.User, "'", "''") + "'"
	statements := []string{
		fmt.Sprintf("GRANT ALL PRIVILEGES ON *.* TO %s@'%%'", user),
		"FLUSH PRIVILEGES",
	}

	attempt := 0
	op := func() error {
		attempt++
		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				var me *mysql.MySQLError
				if errors.As(err, &me) && permanentCodes[me.Number] {
					return backoff.Permanent(err)
				}
				logger.WithField("attempt", attempt).Debugf("Privilege grant failed: %v", err)
				return err
			}
		}
		return nil
	}

	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.Delay), uint64(attempts-1)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		logger.Warnf("Giving up on privilege grant after %d attempt(s): %v", attempt, err)
		return false
	}

	logger.Info("Granted privileges")
	return true
}
