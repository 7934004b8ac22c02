package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitenav/internal/config"
	"git.home.luguber.info/inful/sitenav/internal/eventstore"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
	"git.home.luguber.info/inful/sitenav/internal/metrics"
	"git.home.luguber.info/inful/sitenav/internal/navcheck"
	"git.home.luguber.info/inful/sitenav/internal/notify"
	"git.home.luguber.info/inful/sitenav/internal/pages"
	"git.home.luguber.info/inful/sitenav/internal/retry"
)

const publishTimeout = 5 * time.Second

// Snapshot is one loaded configuration together with its resolved pages.
// Snapshots are never modified after they are published.
type Snapshot struct {
	ReloadID    string
	Trigger     string
	Config      *config.SiteConfig
	Pages       []pages.Page
	Check       *navcheck.Result
	Fingerprint string
	LoadedAt    time.Time
}

// Stats summarizes the snapshot for events and messages.
func (s *Snapshot) Stats() eventstore.LoadStats {
	leaves, nodes := s.Config.NavStats()
	issues := 0
	if s.Check != nil {
		issues = len(s.Check.Issues)
	}
	return eventstore.LoadStats{
		SiteName:    s.Config.Name,
		Fingerprint: s.Fingerprint,
		NavLeaves:   leaves,
		NavNodes:    nodes,
		Pages:       len(s.Pages),
		Issues:      issues,
	}
}

// Reload loads the configuration now. On failure the current snapshot stays
// in place and the error is returned. When the result is unchanged the
// current snapshot is returned.
func (w *Watcher) Reload(ctx context.Context, trigger string) (*Snapshot, error) {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	reloadID := uuid.NewString()
	log := slog.With(
		logfields.ReloadID(reloadID),
		logfields.Trigger(trigger),
		logfields.ConfigPath(w.configPath))

	w.recorder.IncReload(trigger)
	start := time.Now()
	snap, err := w.load(reloadID, trigger)
	elapsed := time.Since(start)
	w.recorder.ObserveLoadDuration(elapsed)

	if err != nil {
		w.recorder.IncLoadOutcome(metrics.OutcomeFailed)
		if w.Current() != nil {
			log.Error("Configuration reload failed, keeping previous configuration", logfields.Error(err))
		} else {
			log.Error("Configuration load failed", logfields.Error(err))
		}
		w.recordFailure(ctx, reloadID, trigger, err)
		return nil, err
	}

	prev := w.Current()
	if prev != nil && prev.Fingerprint == snap.Fingerprint {
		w.recorder.IncLoadOutcome(metrics.OutcomeUnchanged)
		log.Debug("Configuration unchanged", logfields.Fingerprint(short(snap.Fingerprint)))
		if trigger != TriggerPoll {
			w.recordUnchanged(ctx, reloadID, trigger, snap.Fingerprint)
		}
		return prev, nil
	}

	w.current.Store(snap)
	stats := snap.Stats()
	w.recorder.IncLoadOutcome(metrics.OutcomeSuccess)
	w.recorder.SetNavSize(stats.NavLeaves, stats.NavNodes)
	w.recorder.SetLastReload(snap.LoadedAt)
	for rule, n := range issuesByRule(snap.Check) {
		w.recorder.IncCheckIssues(rule, n)
	}

	log.Info("Configuration loaded",
		slog.String("site_name", stats.SiteName),
		logfields.Leaves(stats.NavLeaves),
		logfields.Nodes(stats.NavNodes),
		logfields.Pages(stats.Pages),
		logfields.Fingerprint(short(snap.Fingerprint)),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))

	w.recordLoaded(ctx, snap, elapsed)
	w.syncWatches(snap.Config)
	if w.onReload != nil {
		w.onReload(snap)
	}
	return snap, nil
}

func (w *Watcher) load(reloadID, trigger string) (*Snapshot, error) {
	cfg, err := config.LoadFile(w.configPath, w.loadOpts...)
	if err != nil {
		return nil, err
	}
	resolved, err := pages.Resolve(cfg, w.configDir)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ReloadID:    reloadID,
		Trigger:     trigger,
		Config:      cfg,
		Pages:       resolved,
		Check:       navcheck.Check(cfg, w.configDir),
		Fingerprint: siteFingerprint(cfg, resolved),
		LoadedAt:    time.Now(),
	}, nil
}

// siteFingerprint combines the configuration fingerprint with the resolved
// pages, so edits inside the docs tree count as changes.
func siteFingerprint(cfg *config.SiteConfig, resolved []pages.Page) string {
	h := sha256.New()
	fmt.Fprintf(h, "config %s\n", cfg.Fingerprint())
	for _, p := range resolved {
		fmt.Fprintf(h, "page %s %q %t %s\n", p.NavPath, p.Title, p.Exists, p.Fingerprint)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func issuesByRule(res *navcheck.Result) map[string]int {
	out := make(map[string]int)
	if res == nil {
		return out
	}
	for _, issue := range res.Issues {
		out[issue.Rule]++
	}
	return out
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func (w *Watcher) metadata() map[string]string {
	return map[string]string{logfields.KeyConfigPath: w.configPath}
}

func (w *Watcher) recordLoaded(ctx context.Context, snap *Snapshot, elapsed time.Duration) {
	stats := snap.Stats()
	if w.store != nil {
		ev, err := eventstore.NewConfigLoaded(snap.ReloadID, snap.Trigger, stats, elapsed)
		if err == nil {
			ev.EventMetadata = w.metadata()
			err = w.store.Append(ctx, ev)
		}
		if err != nil {
			slog.Warn("Failed to record reload", logfields.ReloadID(snap.ReloadID), logfields.Error(err))
		}
	}
	w.publish(ctx, notify.Message{
		ReloadID:    snap.ReloadID,
		Type:        eventstore.TypeConfigLoaded,
		Trigger:     snap.Trigger,
		Timestamp:   snap.LoadedAt,
		ConfigPath:  w.configPath,
		SiteName:    stats.SiteName,
		Fingerprint: snap.Fingerprint,
		NavLeaves:   stats.NavLeaves,
		NavNodes:    stats.NavNodes,
	})
}

func (w *Watcher) recordUnchanged(ctx context.Context, reloadID, trigger, fingerprint string) {
	if w.store == nil {
		return
	}
	ev, err := eventstore.NewConfigUnchanged(reloadID, trigger, fingerprint)
	if err == nil {
		ev.EventMetadata = w.metadata()
		err = w.store.Append(ctx, ev)
	}
	if err != nil {
		slog.Warn("Failed to record reload", logfields.ReloadID(reloadID), logfields.Error(err))
	}
}

func (w *Watcher) recordFailure(ctx context.Context, reloadID, trigger string, cause error) {
	if w.store != nil {
		ev, err := eventstore.NewReloadFailed(reloadID, trigger, cause)
		if err == nil {
			ev.EventMetadata = w.metadata()
			err = w.store.Append(ctx, ev)
		}
		if err != nil {
			slog.Warn("Failed to record reload", logfields.ReloadID(reloadID), logfields.Error(err))
		}
	}
	w.publish(ctx, notify.Message{
		ReloadID:   reloadID,
		Type:       eventstore.TypeReloadFailed,
		Trigger:    trigger,
		Timestamp:  time.Now(),
		ConfigPath: w.configPath,
		Error:      cause.Error(),
	})
}

func (w *Watcher) publish(ctx context.Context, msg notify.Message) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err := retry.Do(ctx, w.pubRetry, func() error {
		return w.publisher.Publish(ctx, msg)
	})
	if err != nil {
		slog.Warn("Failed to publish reload message", logfields.ReloadID(msg.ReloadID), logfields.Error(err))
	}
}
