package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/watcher"
)

//go:embed templates
var embedded embed.FS

const (
	layoutDir = "layout"
	pagesDir  = "pages"
)

// Renderer executes page templates. Every page is parsed on top of its own
// copy of the layout so pages can override the layout's blocks.
type Renderer struct {
	source fs.FS
	dir    string
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// NewRenderer parses the templates in dir, or the embedded set when dir is empty.
func NewRenderer(dir string, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Renderer{dir: dir, logger: logger, now: time.Now}
	if dir != "" {
		r.source = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded templates: %w", err)
		}
		r.source = sub
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses every template. On failure the previous set stays in use.
func (r *Renderer) Reload() error {
	pages, err := r.parse()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()
	return nil
}

func (r *Renderer) parse() (map[string]*template.Template, error) {
	layouts, err := fs.Glob(r.source, path.Join(layoutDir, "*.html"))
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layout templates found in %s", layoutDir)
	}

	base, err := template.New("").Funcs(r.funcs()).ParseFS(r.source, layouts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(r.source, path.Join(pagesDir, "*.html"))
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(r.source, file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}
	return pages, nil
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"date": domain.FormatDate,
		"humanDate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return humanize.RelTime(*t, r.now(), "ago", "from now")
		},
		"comma": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"plural": func(n int, singular, plural string) string {
			if n == 1 {
				return singular
			}
			return plural
		},
		"overdue": func(bi *domain.BookInstance) bool {
			return bi.IsOverdue(r.now())
		},
		"statusClass": func(s domain.LoanStatus) string {
			switch s {
			case domain.StatusAvailable:
				return "text-success"
			case domain.StatusMaintenance:
				return "text-danger"
			default:
				return "text-warning"
			}
		},
	}
}

// Render writes the named page with the given status. The page is executed
// into a buffer first so template errors never produce half a page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	r.mu.RLock()
	t, ok := r.pages[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Watch re-parses the templates whenever a file under the template
// directory settles. It blocks until ctx is cancelled. Embedded templates
// never change, so Watch returns at once when no directory is configured.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return nil
	}

	w, err := watcher.New(r.logger, watcher.Options{Extensions: []string{".html"}})
	if err != nil {
		return err
	}
	defer w.Stop() //nolint:errcheck // best-effort cleanup

	if err := w.Watch(r.dir); err != nil {
		return err
	}

	r.logger.Info("watching templates", "dir", r.dir)
	err = w.Run(ctx, func(ev watcher.Event) {
		if err := r.Reload(); err != nil {
			r.logger.Error("template reload failed", "path", ev.Path, "error", err)
			return
		}
		r.logger.Info("templates reloaded", "path", ev.Path, "event", ev.Type.String())
	})
	if errors.Is(err, watcher.ErrClosed) {
		return nil
	}
	return err
}
