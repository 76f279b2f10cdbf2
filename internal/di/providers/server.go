package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/locallibrary/locallibrary-server/internal/config"
	"github.com/locallibrary/locallibrary-server/internal/logger"
	"github.com/locallibrary/locallibrary-server/internal/service"
	"github.com/locallibrary/locallibrary-server/internal/session"
	"github.com/locallibrary/locallibrary-server/internal/store/sqlstore"
	"github.com/locallibrary/locallibrary-server/internal/web"
)

// ProvideRenderer provides the page renderer.
func ProvideRenderer(i do.Injector) (*web.Renderer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	r, err := web.NewRenderer(cfg.Templates.Dir, log.Logger)
	if err != nil {
		return nil, err
	}

	if cfg.Templates.Dir != "" {
		log.Info("Templates loaded from disk", "dir", cfg.Templates.Dir, "reload", cfg.Templates.Reload)
	}
	return r, nil
}

// ProvideWebServer provides the routed HTTP handler.
func ProvideWebServer(i do.Injector) (*web.Server, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	st := do.MustInvoke[*sqlstore.Store](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sessionStore := do.MustInvoke[*session.Store](i)
	sessions := do.MustInvoke[*session.Manager](i)
	renderer := do.MustInvoke[*web.Renderer](i)

	services := &web.Services{
		Catalog: do.MustInvoke[*service.CatalogService](i),
		Search:  do.MustInvoke[*service.SearchService](i),
		Loans:   do.MustInvoke[*service.LoanService](i),
		Authors: do.MustInvoke[*service.AuthorService](i),
		Books:   do.MustInvoke[*service.BookService](i),
		Auth:    do.MustInvoke[*service.AuthService](i),
	}

	return web.NewServer(services, sessions, renderer, log, web.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Store:       st,
		Index:       indexHandle.Index,
		Sessions:    sessionStore,
		TrustProxy:  cfg.Server.TrustProxy,
	}), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	handler := do.MustInvoke[*web.Server](i)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr, "name", cfg.Server.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
