package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"validation", ValidationError("nav check failed").Build(), 2},
		{"not found", NewError(CategoryNotFound, "missing").Build(), 4},
		{"parse", ParseError("bad yaml").Build(), 7},
		{"schema", SchemaError("unknown key").Build(), 7},
		{"already exists", NewError(CategoryAlreadyExists, "exists").Build(), 7},
		{"network", NetworkError("unreachable").Build(), 8},
		{"filesystem", FileSystemError("unreadable").Build(), 11},
		{"runtime", RuntimeError("stopped").Build(), 12},
		{"internal", InternalError("boom").Build(), 10},
		{"unclassified", errors.New("unknown error"), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, adapter.ExitCodeFor(tc.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	positioned := SchemaError(`sitename: unknown key "sitename"`).
		WithKeyPath("sitename").
		At(1, 1).
		WithContext(ContextConfigPath, "mkdocs.yml").
		Build()
	require.Equal(t, "Error: mkdocs.yml:1:1: sitename: unknown key \"sitename\"\n  key: sitename", adapter.FormatError(positioned))

	unpositioned := FileSystemError("cannot read").WithContext("path", "docs").Build()
	require.Equal(t, "Error: cannot read\n  path: docs", adapter.FormatError(unpositioned))

	require.Equal(t, "Internal error occurred (use -v for details)", adapter.FormatError(InternalError("nil pointer").Build()))
	require.Equal(t, "Error: something odd", adapter.FormatError(errors.New("something odd")))
	require.Empty(t, adapter.FormatError(nil))
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs bytes.Buffer
	adapter := NewCLIErrorAdapter(true, slog.New(slog.NewTextHandler(&logs, nil)))

	var out bytes.Buffer
	code := adapter.Report(&out, ParseError("malformed configuration document").At(2, 0).Build())

	require.Equal(t, 7, code)
	require.Contains(t, out.String(), "[parse:fatal] malformed configuration document")
	require.Contains(t, out.String(), "line: 2")
	require.Contains(t, logs.String(), "category=parse")
}

func TestCLIErrorAdapter_QuietForUserErrors(t *testing.T) {
	var logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))

	var out bytes.Buffer
	require.Equal(t, 2, adapter.Report(&out, ValidationError("navigation check failed").Build()))
	require.Equal(t, "Error: navigation check failed\n", out.String())
	require.Empty(t, logs.String())
}
