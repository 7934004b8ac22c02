// Package watch keeps a site configuration loaded and reloads it when the
// configuration file, the docs tree or one of the watch paths changes.
//
// Reloads are serialized. A failed reload keeps the previous configuration in
// use; a reload whose fingerprint matches the current one changes nothing.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitenav/internal/config"
	"git.home.luguber.info/inful/sitenav/internal/eventstore"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
	"git.home.luguber.info/inful/sitenav/internal/metrics"
	"git.home.luguber.info/inful/sitenav/internal/notify"
	"git.home.luguber.info/inful/sitenav/internal/retry"
)

// DefaultDebounce is the quiet period after the last change before a reload.
const DefaultDebounce = 500 * time.Millisecond

// DefaultPublishRetry retries a failed reload message twice.
var DefaultPublishRetry = retry.NewPolicy(retry.Exponential, 200*time.Millisecond, 2*time.Second, 2)

// Options configures a Watcher. Zero values select no-op hooks.
type Options struct {
	Debounce     time.Duration
	PollInterval time.Duration // 0 disables polling
	LoadOptions  []config.Option
	Recorder     metrics.Recorder
	Store        eventstore.Store
	Publisher    notify.Publisher
	// PublishRetry controls retries of failed publishes; the zero value
	// selects DefaultPublishRetry.
	PublishRetry retry.Policy
	// OnReload is called after a new configuration has been swapped in.
	OnReload func(*Snapshot)
}

// Watcher owns the current configuration snapshot.
type Watcher struct {
	configPath string
	configDir  string
	debounce   time.Duration
	poll       time.Duration
	loadOpts   []config.Option
	recorder   metrics.Recorder
	store      eventstore.Store
	publisher  notify.Publisher
	pubRetry   retry.Policy
	onReload   func(*Snapshot)

	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
	polls    chan struct{}

	mu         sync.RWMutex
	fsw        *fsnotify.Watcher
	watched    map[string]bool
	docsDir    string
	watchRoots []string
}

// New creates a watcher for the configuration at configPath. Nothing is
// loaded until Reload or Run.
func New(configPath string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	w := &Watcher{
		configPath: abs,
		configDir:  filepath.Dir(abs),
		debounce:   opts.Debounce,
		poll:       opts.PollInterval,
		loadOpts:   opts.LoadOptions,
		recorder:   opts.Recorder,
		store:      opts.Store,
		publisher:  opts.Publisher,
		pubRetry:   opts.PublishRetry,
		onReload:   opts.OnReload,
		polls:      make(chan struct{}, 1),
		watched:    make(map[string]bool),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.recorder == nil {
		w.recorder = metrics.NoopRecorder{}
	}
	if w.publisher == nil {
		w.publisher = notify.Noop{}
	}
	if w.pubRetry == (retry.Policy{}) {
		w.pubRetry = DefaultPublishRetry
	}
	return w, nil
}

// ConfigPath returns the absolute path of the watched configuration.
func (w *Watcher) ConfigPath() string { return w.configPath }

// Current returns the configuration in use, or nil before the first
// successful load.
func (w *Watcher) Current() *Snapshot { return w.current.Load() }

// Run loads the configuration if needed, then reloads it on changes until
// ctx is done. It fails only when the initial load fails or the file
// watcher cannot be created.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Current() == nil {
		if _, err := w.Reload(ctx, TriggerStartup); err != nil {
			return err
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.fsw = nil
		w.watched = make(map[string]bool)
		w.mu.Unlock()
		if err := fsw.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()
	w.syncWatches(w.Current().Config)

	if w.poll > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleEvery("config-poll", w.poll, w.requestPoll); err != nil {
			_ = sched.Stop()
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Error stopping poll scheduler", logfields.Error(err))
			}
		}()
	}

	slog.Info("Watching configuration",
		logfields.ConfigPath(w.configPath),
		slog.Duration("debounce", w.debounce),
		slog.Duration("poll_interval", w.poll))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	pending := ""

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping configuration watcher", logfields.ConfigPath(w.configPath))
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			trigger, ok := w.classify(ev.Name)
			if !ok {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.addCreatedDir(ev.Name)
			}
			slog.Debug("Change detected",
				logfields.Path(ev.Name),
				logfields.Trigger(trigger),
				slog.String("op", ev.Op.String()))
			pending = mergeTrigger(pending, trigger)
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Config watcher error", logfields.Error(err))

		case <-timer.C:
			trigger := pending
			pending = ""
			_, _ = w.Reload(ctx, trigger)

		case <-w.polls:
			_, _ = w.Reload(ctx, TriggerPoll)
		}
	}
}

// requestPoll queues a poll reload; a poll already queued absorbs it.
func (w *Watcher) requestPoll() {
	select {
	case w.polls <- struct{}{}:
	default:
	}
}
