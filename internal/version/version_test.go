package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	require.NotEmpty(t, Version)
	require.NotEmpty(t, BuildTime)
	require.NotEmpty(t, GitCommit)
	require.NotEmpty(t, String())
}

func TestFormat_LinkedVersion(t *testing.T) {
	called := false
	got := format("v0.3.0", "0123456789abcdef", "2026-10-01", func() (*debug.BuildInfo, bool) {
		called = true
		return nil, false
	})
	require.Equal(t, "v0.3.0 (commit 0123456789ab, built 2026-10-01)", got)
	require.False(t, called)
}

func TestFormat_FallsBackToBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.2.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "fedcba9876543210"},
			{Key: "vcs.time", Value: "2026-09-30T12:00:00Z"},
		},
	}
	got := format("unknown", "unknown", "unknown", func() (*debug.BuildInfo, bool) { return info, true })
	require.Equal(t, "v0.2.1 (commit fedcba987654, built 2026-09-30T12:00:00Z)", got)

	info.Main.Version = "(devel)"
	got = format("unknown", "unknown", "unknown", func() (*debug.BuildInfo, bool) { return info, true })
	require.Equal(t, "unknown (commit fedcba987654, built 2026-09-30T12:00:00Z)", got)
}
