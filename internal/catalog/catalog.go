// Package catalog defines the assessment catalog item model and the
// immutable ordinal-indexed store the retrieval core joins search results
// against. Items are produced by the crawler as CSV rows and frozen into
// the index artifact as a JSONL mapping at index-build time.
package catalog

import (
	"strings"
)

// RemoteTesting is the tri-state remote-testing availability of an item.
// It is carried as a display string end to end because the upstream catalog
// renders it as text rather than a boolean.
type RemoteTesting string

const (
	// RemoteYes means the assessment can be taken remotely.
	RemoteYes RemoteTesting = "Yes"
	// RemoteNo means the assessment requires supervised on-site delivery.
	RemoteNo RemoteTesting = "No"
	// RemoteUnknown means the catalog page did not state availability.
	RemoteUnknown RemoteTesting = "Unknown"
)

// ParseRemoteTesting canonicalises free-form remote-testing text into the
// tri-state constant. Anything unrecognised maps to RemoteUnknown.
func ParseRemoteTesting(s string) RemoteTesting {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "y":
		return RemoteYes
	case "no", "false", "n":
		return RemoteNo
	default:
		return RemoteUnknown
	}
}

// Item is one assessment product in the catalog. Immutable once loaded.
// The URL is the unique key; Name is display-only and not guaranteed unique.
type Item struct {
	// Name is the product display name.
	Name string `json:"name"`
	// URL is the catalog detail page URL and the item's unique key.
	URL string `json:"url"`
	// TestTypes is the ordered list of test type codes. Always a slice,
	// possibly singleton — single-value rows are canonicalised on parse.
	TestTypes []string `json:"test_types"`
	// Description is the product description text.
	Description string `json:"description"`
	// RemoteTesting is the tri-state remote availability.
	RemoteTesting RemoteTesting `json:"remote_testing"`
	// JobLevels is the ordered list of job levels the assessment targets.
	JobLevels []string `json:"job_levels"`
}

// EmbedText composes the text that represents this item in embedding space.
// The index builder embeds exactly this string, so changing it invalidates
// existing index artifacts.
func (it Item) EmbedText() string {
	parts := []string{it.Name, it.Description}
	if len(it.TestTypes) > 0 {
		parts = append(parts, strings.Join(it.TestTypes, ", "))
	}
	if len(it.JobLevels) > 0 {
		parts = append(parts, strings.Join(it.JobLevels, ", "))
	}
	if it.RemoteTesting == RemoteYes {
		parts = append(parts, "remote testing available")
	}
	return strings.Join(parts, ". ")
}

// splitMulti parses a pipe-separated multi-value CSV field into a slice,
// trimming whitespace and dropping empty segments. A bare single value
// yields a singleton slice.
func splitMulti(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	raw := strings.Split(s, "|")
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// joinMulti renders a multi-value field back to its pipe-separated CSV form.
func joinMulti(vals []string) string {
	return strings.Join(vals, "|")
}
