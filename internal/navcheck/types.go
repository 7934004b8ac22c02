// Package navcheck validates a loaded site configuration against the files on
// disk: navigation targets, orphaned pages, watch paths and extra assets.
package navcheck

// Severity indicates the importance level of an issue.
type Severity int

const (
	// SeverityInfo marks issues that are reported but never fail a check.
	SeverityInfo Severity = iota
	// SeverityWarning marks issues that only fail a check in strict mode.
	SeverityWarning
	// SeverityError marks issues that always fail a check.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Rule identifiers.
const (
	RuleDocsDirMissing    = "docs-dir-missing"
	RuleNavMissingPage    = "nav-missing-page"
	RuleNavOutsideDocs    = "nav-outside-docs"
	RuleNavAbsolutePath   = "nav-absolute-path"
	RuleNavDuplicatePage  = "nav-duplicate-page"
	RuleNavEmptySection   = "nav-empty-section"
	RulePageNotInNav      = "page-not-in-nav"
	RuleWatchPathMissing  = "watch-path-missing"
	RuleExtraAssetMissing = "extra-asset-missing"
)

// Issue is a single problem found by Check.
type Issue struct {
	Path     string   // Docs-relative path, config key or directory the issue is about
	Trail    []string // Enclosing nav sections, outermost first
	Severity Severity
	Rule     string
	Message  string
	Fix      string
}

// Result contains all issues found by Check.
type Result struct {
	Issues    []Issue
	NavLeaves int
	NavNodes  int
	DocFiles  int
}

func (r *Result) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int { return r.count(SeverityError) }

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int { return r.count(SeverityWarning) }

// InfoCount returns the number of informational issues.
func (r *Result) InfoCount() int { return r.count(SeverityInfo) }

// Failed reports whether the result should fail validation. In strict mode
// warnings count as failures.
func (r *Result) Failed(strict bool) bool {
	if r.ErrorCount() > 0 {
		return true
	}
	return strict && r.WarningCount() > 0
}

func (r *Result) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}
