// Package catalog loads and normalizes the reference drug database. It
// streams a large comma-delimited file into the canonical name set,
// publishing partial snapshots as it goes so search improves progressively,
// and falls back to a built-in seed list when no source is available.
package catalog

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dosageSuffixes are stripped from the end of a raw name, one pass each, in
// exactly this order. The single pass is deliberate: stripping is not
// repeated to a fixed point, so downstream outputs stay compatible with the
// historical normalizer.
var dosageSuffixes = []string{
	"TABS", "TAB", "CAPSULE", "CAP", "TABLET", "INJECTION", "ORAL",
	"SOLUTION", "SUSPENSION", "MG", "ML", "EXTENDED RELEASE",
	"ER", "XR", "SR", "DR", "IR",
}

var (
	strengthPattern = regexp.MustCompile(`(?i)\s*\d+\s*(MG|MCG|G|ML)\b`)
	parentheticals  = regexp.MustCompile(`\s*\([^)]*\)`)
	repeatedSpaces  = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes a raw drug-name string: dosage-form suffixes,
// strength tokens and parenthetical notes are removed, whitespace collapsed,
// and the result title-cased. Never fails; garbage input yields an empty
// string, which callers filter out.
func NormalizeName(raw string) string {
	name := strings.TrimSpace(raw)

	for _, suffix := range dosageSuffixes {
		name = stripTrailingToken(name, suffix)
	}

	name = strengthPattern.ReplaceAllString(name, "")
	name = parentheticals.ReplaceAllString(name, "")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	// Casers are stateful and must not be shared between goroutines.
	return cases.Title(language.English).String(name)
}

// stripTrailingToken removes token from the end of name when it stands as a
// whole word there (preceded by whitespace or alone), case-insensitively.
func stripTrailingToken(name, token string) string {
	if len(name) < len(token) {
		return name
	}

	cut := len(name) - len(token)
	if !strings.EqualFold(name[cut:], token) {
		return name
	}
	if cut > 0 && name[cut-1] != ' ' && name[cut-1] != '\t' {
		return name
	}

	return strings.TrimRight(name[:cut], " \t")
}
