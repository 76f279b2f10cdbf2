package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/locallibrary/locallibrary-server/internal/config"
	"github.com/locallibrary/locallibrary-server/internal/logger"
	"github.com/locallibrary/locallibrary-server/internal/session"
	"github.com/locallibrary/locallibrary-server/internal/web"
)

// SessionCleanupJob runs periodic session store garbage collection.
type SessionCleanupJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startSessionCleanup runs st.RunGC every interval until Shutdown.
func startSessionCleanup(st *session.Store, interval time.Duration) *SessionCleanupJob {
	ctx, cancel := context.WithCancel(context.Background())
	j := &SessionCleanupJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(j.done)
		st.RunGC(ctx, interval)
	}()
	return j
}

// Shutdown implements do.Shutdownable. It returns once a running GC pass
// has finished, so the store can be closed safely afterwards.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
// Expired sessions vanish through their TTL; the job reclaims the disk
// space they leave behind.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	st := do.MustInvoke[*session.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	j := startSessionCleanup(st, sessionGCInterval)
	log.Info("Session cleanup job started", "interval", sessionGCInterval)

	return j, nil
}

// TemplateWatcherHandle stops the template reload loop.
type TemplateWatcherHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *TemplateWatcherHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideTemplateWatcher re-parses templates on change when reloading is enabled.
func ProvideTemplateWatcher(i do.Injector) (*TemplateWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	renderer := do.MustInvoke[*web.Renderer](i)

	ctx, cancel := context.WithCancel(context.Background())
	h := &TemplateWatcherHandle{cancel: cancel, done: make(chan struct{})}

	if !cfg.Templates.Reload {
		close(h.done)
		return h, nil
	}

	go func() {
		defer close(h.done)
		if err := renderer.Watch(ctx); err != nil {
			log.Error("Template watcher error", "error", err)
		}
	}()

	return h, nil
}
