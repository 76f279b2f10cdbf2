// Package di provides dependency injection configuration for the Local Library server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/locallibrary/locallibrary-server/internal/auth"
	"github.com/locallibrary/locallibrary-server/internal/config"
	"github.com/locallibrary/locallibrary-server/internal/di/providers"
	"github.com/locallibrary/locallibrary-server/internal/logger"
	"github.com/locallibrary/locallibrary-server/internal/ratelimit"
	"github.com/locallibrary/locallibrary-server/internal/service"
	"github.com/locallibrary/locallibrary-server/internal/session"
	"github.com/locallibrary/locallibrary-server/internal/store/sqlstore"
	"github.com/locallibrary/locallibrary-server/internal/validation"
	"github.com/locallibrary/locallibrary-server/internal/web"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSessionStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideSessionManager)
	do.Provide(injector, providers.ProvideLoginLimiter)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideLoanService)
	do.Provide(injector, providers.ProvideAuthorService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideAuthService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)
	do.Provide(injector, providers.ProvideTemplateWatcher)

	// Server
	do.Provide(injector, providers.ProvideRenderer)
	do.Provide(injector, providers.ProvideWebServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*sqlstore.Store](injector)
	_ = do.MustInvoke[*session.Store](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*session.Manager](injector)
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	// Business services
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.LoanService](injector)
	_ = do.MustInvoke[*service.AuthorService](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)
	_ = do.MustInvoke[*web.Renderer](injector)
	_ = do.MustInvoke[*providers.TemplateWatcherHandle](injector)

	// Search index is rebuilt before requests are served
	if err := providers.RebuildSearchIndex(injector); err != nil {
		return err
	}

	// Server
	_ = do.MustInvoke[*web.Server](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
