package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitenav/internal/config"
	"git.home.luguber.info/inful/sitenav/internal/eventstore"
	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/metrics"
	"git.home.luguber.info/inful/sitenav/internal/notify"
	"git.home.luguber.info/inful/sitenav/internal/retry"
	"git.home.luguber.info/inful/sitenav/internal/util/sets"
)

const siteConfig = `site_name: Watched
nav:
  - Home: index.md
  - Guide:
      - guide/install.md
`

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Type)
	}
	return out
}

func write(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newSite(t *testing.T, cfg string) string {
	t.Helper()
	dir := t.TempDir()
	write(t, filepath.Join(dir, "mkdocs.yml"), cfg)
	write(t, filepath.Join(dir, "docs", "index.md"), "# Home\n")
	write(t, filepath.Join(dir, "docs", "guide", "install.md"), "# Installation\n")
	return filepath.Join(dir, "mkdocs.yml")
}

func newStore(t *testing.T) *eventstore.SQLiteStore {
	t.Helper()
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func noEnvFiles() []config.Option {
	return []config.Option{config.WithEnvFiles(false)}
}

func TestReload_LoadsAndSkipsUnchanged(t *testing.T) {
	cfgPath := newSite(t, siteConfig)
	store := newStore(t)
	pub := &recordingPublisher{}
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	var reloaded atomic.Int32
	w, err := New(cfgPath, Options{
		LoadOptions: noEnvFiles(),
		Recorder:    rec,
		Store:       store,
		Publisher:   pub,
		OnReload:    func(*Snapshot) { reloaded.Add(1) },
	})
	require.NoError(t, err)
	require.Nil(t, w.Current())

	first, err := w.Reload(t.Context(), TriggerStartup)
	require.NoError(t, err)
	require.Same(t, first, w.Current())
	require.Equal(t, "Watched", first.Config.Name)
	require.Len(t, first.Pages, 2)
	require.Equal(t, "Installation", first.Pages[1].Title)
	require.NotEmpty(t, first.Fingerprint)
	require.NotEmpty(t, first.ReloadID)

	second, err := w.Reload(t.Context(), TriggerConfig)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, int32(1), reloaded.Load())

	history, err := eventstore.History(t.Context(), store, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, eventstore.TypeConfigUnchanged, history[0].Type)
	require.Equal(t, eventstore.TypeConfigLoaded, history[1].Type)
	require.Equal(t, 2, history[1].NavLeaves)
	require.Equal(t, 3, history[1].NavNodes)

	require.Equal(t, []string{eventstore.TypeConfigLoaded}, pub.types())
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP sitenav_nav_leaves Number of leaf entries in the current navigation
# TYPE sitenav_nav_leaves gauge
sitenav_nav_leaves 2
`), "sitenav_nav_leaves"))
}

func TestReload_PollUnchangedIsNotRecorded(t *testing.T) {
	cfgPath := newSite(t, siteConfig)
	store := newStore(t)
	w, err := New(cfgPath, Options{LoadOptions: noEnvFiles(), Store: store})
	require.NoError(t, err)

	_, err = w.Reload(t.Context(), TriggerStartup)
	require.NoError(t, err)
	_, err = w.Reload(t.Context(), TriggerPoll)
	require.NoError(t, err)

	events, err := store.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestReload_KeepsLastGoodConfig(t *testing.T) {
	cfgPath := newSite(t, siteConfig)
	store := newStore(t)
	pub := &recordingPublisher{}
	w, err := New(cfgPath, Options{LoadOptions: noEnvFiles(), Store: store, Publisher: pub})
	require.NoError(t, err)

	good, err := w.Reload(t.Context(), TriggerStartup)
	require.NoError(t, err)

	write(t, cfgPath, "site_name: Broken\nnav: {not: a list}\n")
	snap, err := w.Reload(t.Context(), TriggerConfig)
	require.Error(t, err)
	require.Nil(t, snap)
	require.True(t, config.IsSchemaError(err))
	require.Same(t, good, w.Current())

	history, err := eventstore.History(t.Context(), store, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, eventstore.TypeReloadFailed, history[0].Type)
	require.Equal(t, TriggerConfig, history[0].Trigger)
	require.NotEmpty(t, history[0].Error)

	require.Equal(t, []string{eventstore.TypeConfigLoaded, eventstore.TypeReloadFailed}, pub.types())
}

func TestReload_InitialFailure(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "mkdocs.yml"), Options{LoadOptions: noEnvFiles()})
	require.NoError(t, err)

	_, err = w.Reload(t.Context(), TriggerStartup)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	require.Nil(t, w.Current())

	require.Error(t, w.Run(t.Context()))
}

func TestReload_DocsEditChangesFingerprint(t *testing.T) {
	cfgPath := newSite(t, "site_name: Auto\n")
	w, err := New(cfgPath, Options{LoadOptions: noEnvFiles()})
	require.NoError(t, err)

	first, err := w.Reload(t.Context(), TriggerStartup)
	require.NoError(t, err)
	require.Len(t, first.Pages, 2)

	write(t, filepath.Join(filepath.Dir(cfgPath), "docs", "guide", "install.md"), "# Setup\n")
	second, err := w.Reload(t.Context(), TriggerDocs)
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.NotEqual(t, first.Fingerprint, second.Fingerprint)
	require.Equal(t, first.Config.Fingerprint(), second.Config.Fingerprint())
	require.Equal(t, "Setup", second.Pages[1].Title)
}

func TestRun_ReloadsOnChanges(t *testing.T) {
	cfgPath := newSite(t, "site_name: Before\n")
	docs := filepath.Join(filepath.Dir(cfgPath), "docs")
	w, err := New(cfgPath, Options{LoadOptions: noEnvFiles(), Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	require.Eventually(t, func() bool {
		s := w.Current()
		return s != nil && s.Config.Name == "Before"
	}, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		w.mu.RLock()
		defer w.mu.RUnlock()
		return w.watched[docs]
	}, 5*time.Second, 20*time.Millisecond)

	write(t, cfgPath, "site_name: After\n")
	require.Eventually(t, func() bool {
		return w.Current().Config.Name == "After"
	}, 5*time.Second, 20*time.Millisecond)

	write(t, filepath.Join(docs, "reference", "api.md"), "# API\n")
	require.Eventually(t, func() bool {
		return len(w.Current().Pages) == 3
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, TriggerDocs, w.Current().Trigger)
}

func TestClassify(t *testing.T) {
	root := t.TempDir()
	w, err := New(filepath.Join(root, "mkdocs.yml"), Options{})
	require.NoError(t, err)
	w.syncWatches(&config.SiteConfig{
		Name:    "x",
		DocsDir: "docs",
		Watch:   sets.NewOrdered("src"),
	})

	cases := []struct {
		name    string
		trigger string
		ok      bool
	}{
		{"mkdocs.yml", TriggerConfig, true},
		{".env", TriggerConfig, true},
		{".env.local", TriggerConfig, true},
		{"docs/index.md", TriggerDocs, true},
		{"docs", TriggerDocs, true},
		{"docs/.index.md.swp", "", false},
		{"docs/index.md~", "", false},
		{"src/module.py", TriggerWatch, true},
		{"srcfoo/module.py", "", false},
		{"README.md", "", false},
		{"site/index.html", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trigger, ok := w.classify(filepath.Join(root, filepath.FromSlash(tc.name)))
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.trigger, trigger)
		})
	}
}

func TestMergeTrigger(t *testing.T) {
	require.Equal(t, TriggerDocs, mergeTrigger("", TriggerDocs))
	require.Equal(t, TriggerConfig, mergeTrigger(TriggerDocs, TriggerConfig))
	require.Equal(t, TriggerConfig, mergeTrigger(TriggerConfig, TriggerWatch))
	require.Equal(t, TriggerWatch, mergeTrigger(TriggerDocs, TriggerWatch))
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	_, err = s.ScheduleEvery("bad", 0, func() {})
	require.Error(t, err)

	var runs atomic.Int32
	id, err := s.ScheduleEvery("tick", 50*time.Millisecond, func() { runs.Add(1) })
	require.NoError(t, err)
	require.NotEmpty(t, id)
	s.Start()
	require.Eventually(t, func() bool { return runs.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
}

type flakyPublisher struct {
	recordingPublisher
	failures int
}

func (p *flakyPublisher) Publish(ctx context.Context, msg notify.Message) error {
	p.mu.Lock()
	if p.failures > 0 {
		p.failures--
		p.mu.Unlock()
		return ferrors.NetworkError("nats: connection closed").Build()
	}
	p.mu.Unlock()
	return p.recordingPublisher.Publish(ctx, msg)
}

func TestReload_RetriesPublish(t *testing.T) {
	cfgPath := newSite(t, siteConfig)
	pub := &flakyPublisher{failures: 2}
	w, err := New(cfgPath, Options{
		LoadOptions:  noEnvFiles(),
		Publisher:    pub,
		PublishRetry: retry.NewPolicy(retry.Fixed, time.Millisecond, time.Millisecond, 2),
	})
	require.NoError(t, err)

	_, err = w.Reload(t.Context(), TriggerStartup)
	require.NoError(t, err)
	require.Equal(t, []string{eventstore.TypeConfigLoaded}, pub.types())
}
