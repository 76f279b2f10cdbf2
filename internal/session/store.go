// Package session keeps per-visitor state (visit counter, signed-in user)
// in badger, keyed by a random session ID that travels in an encrypted cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
)

const sessionPrefix = "session:"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when a session is missing or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side state of one browser.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Visits    int       `json:"visits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// isNew marks a session that has not been persisted yet.
	isNew bool
}

// IsAuthenticated reports whether a user is signed in on this session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != ""
}

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool {
	return s.isNew
}

// Store persists sessions in badger. Entries carry a TTL so abandoned
// sessions disappear without a sweeper.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Open opens (or creates) the session database at path.
func Open(path string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions(path), ttl, logger)
}

// OpenInMemory opens a session store that lives only in memory.
func OpenInMemory(ttl time.Duration, logger *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), ttl, logger)
}

func open(opts badger.Options, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	opts.Logger = nil // badger's own logger is too chatty
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	if opts.Dir != "" {
		logger.Info("Session store opened", "path", opts.Dir, "ttl", ttl)
	}

	return &Store{db: db, ttl: ttl, logger: logger}, nil
}

// Close closes the session database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Shutdown implements do.Shutdowner.
func (s *Store) Shutdown() error {
	return s.Close()
}

// TTL returns how long an untouched session survives.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get loads a session by ID. Expired sessions are reported as ErrNotFound.
func (s *Store) Get(_ context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// Save writes the session and restarts its TTL.
func (s *Store) Save(_ context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(sessionPrefix+sess.ID), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.isNew = false
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionPrefix + id))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Count returns the number of live sessions.
func (s *Store) Count() (int, error) {
	prefix := []byte(sessionPrefix)
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// RunGC reclaims value log space every interval until ctx is done.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					continue
				}
				if errors.Is(err, badger.ErrGCInMemoryMode) {
					return
				}
				if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
					s.logger.Warn("session value log GC failed", "error", err)
				}
				break
			}
		}
	}
}
