// Package metrics provides observability hooks for configuration loads and
// watcher reloads.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks at call sites:
//
//	w := watch.New(path, watch.Options{Recorder: metrics.NoopRecorder{}})
//
// The watch command swaps in a PrometheusRecorder when --metrics-addr is set
// and serves the registry with HTTPHandler.
package metrics
