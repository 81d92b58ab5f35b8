package sqldb

import (
	"context"
	"log/slog"

	"github.com/rs/xid"

	"github.com/sakif/guestbook/internal/config"
	"github.com/sakif/guestbook/internal/repository"
)

var _ repository.Connector = (*Connector)(nil)

// Connector opens one DB per call. Each connection gets an xid session id so
// its open, failure and close log lines can be tied together.
type Connector struct {
	cfg    config.Database
	logger *slog.Logger
}

// NewConnector returns a Connector for cfg.
func NewConnector(cfg config.Database, logger *slog.Logger) *Connector {
	return &Connector{cfg: cfg, logger: logger}
}

// Connect opens and verifies a new connection.
func (c *Connector) Connect(ctx context.Context) (repository.EntryRepository, error) {
	session := xid.New().String()

	db, err := Open(ctx, c.cfg)
	if err != nil {
		c.logger.Warn("database connection failed",
			slog.String("session", session),
			slog.String("driver", c.cfg.Driver),
			slog.String("host", c.cfg.Host),
			slog.String("database", c.cfg.Name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	db.session = session
	db.logger = c.logger
	c.logger.Debug("database session opened",
		slog.String("session", session),
		slog.String("driver", c.cfg.Driver),
	)
	return db, nil
}
