package recorder

import (
	"html"
	"regexp"
	"strings"

	"hotelbooker/internal/report"
)

// StepPlaceholder stands in for step text that was never captured.
const StepPlaceholder = "[Step]"

// StepStatus is the runner's verdict for one step.
type StepStatus int

const (
	StepPassed StepStatus = iota
	StepFailed
	StepSkipped
	StepPending
	StepUndefined
	StepAmbiguous
)

// ReportStatus maps a runner verdict onto the report's status set.
func (s StepStatus) ReportStatus() report.Status {
	switch s {
	case StepPassed:
		return report.Passed
	case StepFailed:
		return report.Failed
	case StepSkipped:
		return report.Skipped
	case StepPending:
		return report.Pending
	default:
		return report.Other
	}
}

var keywordPattern = regexp.MustCompile(`^(Given|When|Then|And)\b`)

// EmphasizeKeyword HTML-escapes a step line and highlights its leading
// Gherkin keyword.
func EmphasizeKeyword(step string) string {
	return keywordPattern.ReplaceAllString(html.EscapeString(step),
		"<span style='color:#0074D9;font-weight:bold;'>$1</span>")
}

// DisplayName appends " [Example: <row>]" to name when id carries an
// example row after a ';'.
func DisplayName(name, id string) string {
	parts := strings.Split(id, ";")
	if len(parts) > 1 && parts[1] != "" {
		return name + " [Example: " + parts[1] + "]"
	}
	return name
}

// Categories strips the '@' from tags.
func Categories(tags []string) []string {
	cats := make([]string, 0, len(tags))
	for _, t := range tags {
		if c := strings.TrimPrefix(strings.TrimSpace(t), "@"); c != "" {
			cats = append(cats, c)
		}
	}
	return cats
}
