package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		return a.exitCodeFromClassified(classified)
	}
	return 1
}

func (a *CLIErrorAdapter) exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Category() {
	case CategoryValidation:
		return 2 // Invalid usage or failed checks
	case CategoryNotFound:
		return 4
	case CategoryConfig, CategoryParse, CategorySchema, CategoryAlreadyExists:
		return 7 // Configuration error
	case CategoryNetwork, CategoryGit:
		return 8 // External system error
	case CategoryFileSystem, CategoryDocs, CategoryEventStore:
		return 11
	case CategoryRuntime:
		return 12
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// userFacing reports whether a category describes a problem the user can fix.
func userFacing(category ErrorCategory) bool {
	switch category {
	case CategoryInternal, CategoryRuntime:
		return false
	default:
		return true
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	if classified, ok := AsClassified(err); ok {
		return a.formatClassified(classified)
	}
	return fmt.Sprintf("Error: %v", err)
}

func (a *CLIErrorAdapter) formatClassified(err *ClassifiedError) string {
	if a.verbose {
		return err.Error() + formatContext(err.Context())
	}
	if !userFacing(err.Category()) {
		return "Internal error occurred (use -v for details)"
	}

	var b strings.Builder
	b.WriteString("Error: ")
	loc := err.Location()
	if loc != "" {
		b.WriteString(loc + ": ")
	}
	b.WriteString(err.Message())
	if cause := err.Cause(); cause != nil {
		fmt.Fprintf(&b, ": %v", cause)
	}
	if loc != "" {
		b.WriteString(formatContext(err.Context(), ContextConfigPath, ContextLine, ContextColumn))
	} else {
		b.WriteString(formatContext(err.Context()))
	}
	return b.String()
}

// formatContext renders context as indented "key: value" lines in key order,
// leaving out the skipped keys.
func formatContext(ctx ErrorContext, skip ...string) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		if !slices.Contains(skip, k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, ctx[k])
	}
	return b.String()
}

// Report logs err when appropriate, writes the user-facing message to w and
// returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		// User-facing problems are already printed in full.
		return !userFacing(classified.Category())
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		level := a.slogLevelFromSeverity(classified.Severity())
		attrs := []slog.Attr{
			slog.String("category", string(classified.Category())),
		}
		if cause := classified.Cause(); cause != nil {
			attrs = append(attrs, slog.String("cause", cause.Error()))
		}
		if classified.CanRetry() {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
