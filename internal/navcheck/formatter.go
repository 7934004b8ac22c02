package navcheck

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats check results for output.
type Formatter interface {
	Format(w io.Writer, result *Result, configPath string, strict bool) error
}

// NewFormatter creates the appropriate formatter based on format string.
func NewFormatter(format string) Formatter {
	switch format {
	case "json":
		return &JSONFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// Format outputs results in human-readable text format.
func (f *TextFormatter) Format(w io.Writer, result *Result, configPath string, strict bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Checking navigation of: %s\n", configPath)
	b.WriteString(strings.Repeat("━", 60) + "\n\n")

	for _, issue := range result.Issues {
		fmt.Fprintf(&b, "%s %s\n", icon(issue.Severity), issue.Path)
		if len(issue.Trail) > 0 {
			fmt.Fprintf(&b, "  in: %s\n", strings.Join(issue.Trail, " > "))
		}
		fmt.Fprintf(&b, "  %s [%s]: %s\n", issue.Severity, issue.Rule, issue.Message)
		if issue.Fix != "" {
			fmt.Fprintf(&b, "  Fix: %s\n", issue.Fix)
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("━", 60) + "\n")
	b.WriteString("Results:\n")
	fmt.Fprintf(&b, "  %d nav entr%s, %d page%s\n", result.NavNodes, plural(result.NavNodes, "y", "ies"), result.NavLeaves, plural(result.NavLeaves, "", "s"))
	if n := result.ErrorCount(); n > 0 {
		fmt.Fprintf(&b, "  %d error%s\n", n, plural(n, "", "s"))
	}
	if n := result.WarningCount(); n > 0 {
		suffix := ""
		if strict {
			suffix = " (strict: treated as errors)"
		}
		fmt.Fprintf(&b, "  %d warning%s%s\n", n, plural(n, "", "s"), suffix)
	}
	if n := result.InfoCount(); n > 0 {
		fmt.Fprintf(&b, "  %d info\n", n)
	}
	b.WriteString("\n")

	switch {
	case result.Failed(strict):
		b.WriteString("✗ Navigation check failed.\n")
	case len(result.Issues) > 0:
		b.WriteString("✓ Navigation check passed with notices.\n")
	default:
		b.WriteString("✓ Navigation check passed.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func icon(s Severity) string {
	switch s {
	case SeverityError:
		return "✗"
	case SeverityWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	ConfigPath   string      `json:"config_path"`
	Strict       bool        `json:"strict"`
	Passed       bool        `json:"passed"`
	NavLeaves    int         `json:"nav_leaves"`
	NavNodes     int         `json:"nav_nodes"`
	DocFiles     int         `json:"doc_files"`
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	InfoCount    int         `json:"info_count"`
	Issues       []JSONIssue `json:"issues"`
}

// JSONIssue represents a single issue in JSON format.
type JSONIssue struct {
	Path     string   `json:"path"`
	Trail    []string `json:"trail,omitempty"`
	Severity string   `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Fix      string   `json:"fix,omitempty"`
}

// Format outputs results in JSON format.
func (f *JSONFormatter) Format(w io.Writer, result *Result, configPath string, strict bool) error {
	out := JSONOutput{
		ConfigPath:   configPath,
		Strict:       strict,
		Passed:       !result.Failed(strict),
		NavLeaves:    result.NavLeaves,
		NavNodes:     result.NavNodes,
		DocFiles:     result.DocFiles,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		InfoCount:    result.InfoCount(),
		Issues:       make([]JSONIssue, 0, len(result.Issues)),
	}
	for _, issue := range result.Issues {
		out.Issues = append(out.Issues, JSONIssue{
			Path:     issue.Path,
			Trail:    issue.Trail,
			Severity: issue.Severity.String(),
			Rule:     issue.Rule,
			Message:  issue.Message,
			Fix:      issue.Fix,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
