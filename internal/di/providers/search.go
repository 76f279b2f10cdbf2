package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/locallibrary/locallibrary-server/internal/config"
	"github.com/locallibrary/locallibrary-server/internal/logger"
	"github.com/locallibrary/locallibrary-server/internal/search"
	"github.com/locallibrary/locallibrary-server/internal/service"
	"github.com/locallibrary/locallibrary-server/internal/store/sqlstore"
)

// SearchIndexHandle wraps the Bleve index, which is nil when the store backend is configured.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.Index == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Search.Backend != config.SearchBackendBleve {
		return &SearchIndexHandle{}, nil
	}

	index, err := search.Open(search.Options{
		Path:   cfg.Search.IndexPath,
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "path", cfg.Search.IndexPath, "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	st := do.MustInvoke[*sqlstore.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Keep the index in step with catalog writes.
	if indexHandle.Index != nil {
		st.SetSearchIndexer(indexHandle.Index)
	}

	return service.NewSearchService(st, indexHandle.Index, log.Logger), nil
}

// RebuildSearchIndex refills the index from the catalog before the server
// starts taking requests. Writes made while running with the store backend
// never reached the index, so it is rebuilt on every start.
func RebuildSearchIndex(i do.Injector) error {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	if indexHandle.Index == nil {
		return nil
	}

	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := searchService.Reindex(context.Background()); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	count, _ := indexHandle.DocumentCount()
	log.Info("Search index ready", "documents", count)
	return nil
}
