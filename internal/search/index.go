package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

// Index wraps a Bleve index. All methods are safe for concurrent use;
// Rebuild takes the write lock.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

var _ store.SearchIndexer = (*Index)(nil)

// Options configures the search index.
type Options struct {
	Path   string // Directory holding the Bleve index
	Logger *slog.Logger
}

// mappingVersion is bumped whenever buildIndexMapping changes, forcing a
// rebuild on the next start.
const mappingVersion = "1"

// Open opens the index at opts.Path, creating it when missing. An index that
// fails to open or carries an old mapping version is recreated empty.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	versionPath := opts.Path + ".version"
	needsCreate := true

	var index bleve.Index
	if _, err := os.Stat(opts.Path); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(existing) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
		default:
			index, err = bleve.Open(opts.Path)
			if err != nil {
				logger.Warn("failed to open existing index, will recreate", "path", opts.Path, "error", err)
			} else {
				needsCreate = false
			}
		}
		if needsCreate {
			if err := os.RemoveAll(opts.Path); err != nil {
				return nil, fmt.Errorf("remove old index: %w", err)
			}
		}
	}

	if needsCreate {
		m, err := buildIndexMapping()
		if err != nil {
			return nil, err
		}
		index, err = bleve.New(opts.Path, m)
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", opts.Path, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", opts.Path)
	}

	return &Index{index: index, path: opts.Path, logger: logger}, nil
}

// Close closes the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Shutdown implements do.Shutdowner.
func (s *Index) Shutdown() error {
	return s.Close()
}

// IndexBook adds or replaces a book.
func (s *Index) IndexBook(_ context.Context, b *domain.Book) error {
	return s.indexDocument(BookDocument(b))
}

// DeleteBook removes a book.
func (s *Index) DeleteBook(_ context.Context, bookID string) error {
	return s.deleteDocument(bookID)
}

// IndexAuthor adds or replaces an author.
func (s *Index) IndexAuthor(_ context.Context, a *domain.Author) error {
	return s.indexDocument(AuthorDocument(a))
}

// DeleteAuthor removes an author.
func (s *Index) DeleteAuthor(_ context.Context, authorID string) error {
	return s.deleteDocument(authorID)
}

func (s *Index) indexDocument(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

func (s *Index) deleteDocument(docID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(docID)
}

// IndexDocuments indexes docs in batches.
func (s *Index) IndexDocuments(docs []*Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DocumentCount returns the number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document and recreates an empty index.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	m, err := buildIndexMapping()
	if err != nil {
		return err
	}
	index, err := bleve.New(s.path, m)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}

// Reindex rebuilds the index from the given catalog.
func (s *Index) Reindex(books []*domain.Book, authors []*domain.Author) error {
	if err := s.Rebuild(); err != nil {
		return err
	}

	docs := make([]*Document, 0, len(books)+len(authors))
	for _, b := range books {
		docs = append(docs, BookDocument(b))
	}
	for _, a := range authors {
		docs = append(docs, AuthorDocument(a))
	}
	if err := s.IndexDocuments(docs); err != nil {
		return err
	}

	s.logger.Info("search index populated", "books", len(books), "authors", len(authors))
	return nil
}
