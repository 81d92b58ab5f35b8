package sqldb

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/sakif/guestbook/internal/config"
)

const (
	defaultMySQLPort    = 3306
	defaultPostgresPort = 5432
)

// DSN renders the driver-specific data source name for cfg.
func DSN(cfg config.Database) (string, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(portOr(cfg.Port, defaultMySQLPort)))
		mc.DBName = cfg.Name
		mc.Params = map[string]string{"charset": "utf8mb4"}
		// TIMESTAMP columns come back as time.Time in UTC.
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Timeout = cfg.ConnectTimeout
		return mc.FormatDSN(), nil

	case config.DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(portOr(cfg.Port, defaultPostgresPort))),
			Path:   "/" + cfg.Name,
		}
		if cfg.ConnectTimeout > 0 {
			secs := int((cfg.ConnectTimeout + time.Second - 1) / time.Second)
			u.RawQuery = url.Values{"connect_timeout": {strconv.Itoa(secs)}}.Encode()
		}
		return u.String(), nil

	case config.DriverSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("sqlite: empty database path")
		}
		return cfg.Path, nil
	}
	return "", fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func portOr(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}
