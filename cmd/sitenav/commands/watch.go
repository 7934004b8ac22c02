package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitenav/internal/eventstore"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
	"git.home.luguber.info/inful/sitenav/internal/metrics"
	"git.home.luguber.info/inful/sitenav/internal/notify"
	"git.home.luguber.info/inful/sitenav/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce     time.Duration `default:"500ms" help:"Quiet period after the last change before reloading"`
	PollInterval time.Duration `name:"poll-interval" default:"0s" help:"Also reload on this interval (0 disables polling)"`
	MetricsAddr  string        `name:"metrics-addr" env:"SITENAV_METRICS_ADDR" help:"Serve /metrics and /healthz on this address (e.g. :9464)"`
	NatsURL      string        `name:"nats-url" env:"SITENAV_NATS_URL" help:"Publish reload messages to this NATS server"`
	NatsSubject  string        `name:"nats-subject" default:"sitenav.reload" help:"Subject for reload messages"`
	HistoryDB    string        `name:"history-db" env:"SITENAV_HISTORY_DB" type:"path" help:"Record reload events in this SQLite database"`
}

func (wc *WatchCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := watch.Options{
		Debounce:     wc.Debounce,
		PollInterval: wc.PollInterval,
		LoadOptions:  root.loadOptions(),
	}

	var reg *prometheus.Registry
	if wc.MetricsAddr != "" {
		reg = metrics.NewRegistry()
		opts.Recorder = metrics.NewPrometheusRecorder(reg)
	}

	if wc.HistoryDB != "" {
		if err := os.MkdirAll(filepath.Dir(wc.HistoryDB), 0o755); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create history directory").
				WithContext("path", wc.HistoryDB).
				Build()
		}
		store, err := eventstore.NewSQLiteStore(wc.HistoryDB)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		opts.Store = store
	}

	if wc.NatsURL != "" {
		pub, err := notify.NewNATSPublisher(wc.NatsURL, wc.NatsSubject)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		opts.Publisher = pub
	}

	w, err := watch.New(root.Config, opts)
	if err != nil {
		return err
	}

	if reg != nil {
		srv := &http.Server{
			Addr:              wc.MetricsAddr,
			Handler:           adminMux(reg, w),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Serving metrics", slog.String("addr", wc.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return w.Run(ctx)
}

type healthStatus struct {
	Status      string    `json:"status"`
	ConfigPath  string    `json:"config_path"`
	SiteName    string    `json:"site_name,omitempty"`
	ReloadID    string    `json:"reload_id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	LoadedAt    time.Time `json:"loaded_at,omitzero"`
	NavLeaves   int       `json:"nav_leaves"`
	NavNodes    int       `json:"nav_nodes"`
}

// adminMux serves Prometheus metrics and a health document describing the
// configuration currently in use.
func adminMux(reg *prometheus.Registry, w *watch.Watcher) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		status := healthStatus{Status: "loading", ConfigPath: w.ConfigPath()}
		code := http.StatusServiceUnavailable
		if snap := w.Current(); snap != nil {
			stats := snap.Stats()
			status = healthStatus{
				Status:      "ok",
				ConfigPath:  w.ConfigPath(),
				SiteName:    stats.SiteName,
				ReloadID:    snap.ReloadID,
				Fingerprint: snap.Fingerprint,
				LoadedAt:    snap.LoadedAt,
				NavLeaves:   stats.NavLeaves,
				NavNodes:    stats.NavNodes,
			}
			code = http.StatusOK
		}
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(code)
		_ = json.NewEncoder(rw).Encode(status)
	})
	return mux
}
