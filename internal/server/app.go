// Package server wires the identity engine together: configuration,
// logging, database, migrations, notification sender, and services. The
// transport layer (HTTP or otherwise) lives outside this module and
// consumes the services exposed on App.
package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/openaudit/internal/logging"
	"github.com/dmitrijs2005/openaudit/internal/server/config"
	"github.com/dmitrijs2005/openaudit/internal/server/mail"
	"github.com/dmitrijs2005/openaudit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/openaudit/internal/server/services"
)

type App struct {
	Config   *config.Config
	Logger   logging.Logger
	DB       *sql.DB
	Accounts *services.AccountService
	Sessions *services.SessionService
}

// NewApp validates the configuration, opens the database, applies
// migrations, and constructs the services. A missing encryption key or
// lookup salt fails here, before any connection is made.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	logger := logging.NewDefault()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	var sender mail.Sender
	switch cfg.MailMode {
	case "ses":
		sender, err = mail.NewSESSender(ctx, cfg.Domain, cfg.SESRegion, cfg.SESAccessKeyID, cfg.SESSecretAccessKey)
		if err != nil {
			return nil, fmt.Errorf("mail init error: %w", err)
		}
	default:
		sender = mail.NewLogSender(logger)
	}

	accounts := services.NewAccountService(db, rm, sender, logger, cfg)
	sessions := services.NewSessionService(db, rm, accounts, cfg)

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Accounts: accounts,
		Sessions: sessions,
	}, nil
}

func (app *App) Close() error {
	return app.DB.Close()
}
