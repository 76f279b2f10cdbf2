package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/locallibrary/locallibrary-server/internal/auth"
	"github.com/locallibrary/locallibrary-server/internal/config"
	"github.com/locallibrary/locallibrary-server/internal/logger"
	"github.com/locallibrary/locallibrary-server/internal/session"
	"github.com/locallibrary/locallibrary-server/internal/store/sqlstore"
)

// ProvideStore provides the relational catalog store.
func ProvideStore(i do.Injector) (*sqlstore.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Database.Driver)

	return st, nil
}

// ProvideSessionStore provides the badger-backed session store.
func ProvideSessionStore(i do.Injector) (*session.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := session.Open(cfg.SessionsPath(), cfg.Auth.SessionDuration, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Session store initialized", "path", cfg.SessionsPath())

	return st, nil
}

// ProvideSessionManager provides the cookie session manager.
func ProvideSessionManager(i do.Injector) (*session.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	st := do.MustInvoke[*session.Store](i)
	tokens := do.MustInvoke[*auth.TokenService](i)

	return session.NewManager(st, tokens, cfg.App.IsProduction(), log.Logger), nil
}
