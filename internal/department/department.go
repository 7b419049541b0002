// Package department defines the closed set of company departments and the
// prompt taxonomy used to classify and answer queries against them.
package department

import "strings"

// Label identifies one of the company departments. The set is closed:
// routing output is filtered through Parse, so no other value ever enters
// the pipeline.
type Label string

const (
	HR          Label = "HR"
	Engineering Label = "Engineering"
	Sales       Label = "Sales"
	Finance     Label = "Finance"
	Support     Label = "Support"
)

// All returns every department in canonical order. Broadcast fallback and
// router prompt construction rely on this order being stable.
func All() []Label {
	return []Label{HR, Engineering, Sales, Finance, Support}
}

// Parse maps s onto a known label, ignoring case and surrounding whitespace.
// The second return is false for anything outside the closed set.
func Parse(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hr":
		return HR, true
	case "engineering":
		return Engineering, true
	case "sales":
		return Sales, true
	case "finance":
		return Finance, true
	case "support":
		return Support, true
	default:
		return "", false
	}
}

// String returns the canonical display form.
func (l Label) String() string { return string(l) }

// Key returns the lowercase form used in store metadata and API payloads.
func (l Label) Key() string { return strings.ToLower(string(l)) }

// Keys converts labels to their lowercase metadata form, preserving order.
func Keys(labels []Label) []string {
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = l.Key()
	}
	return keys
}
