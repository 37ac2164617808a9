// Package classify decides whether fetched page content indicates an open
// beta slot. It is pure string matching; no network, no state.
package classify

import "strings"

// Marker sets are matched case-insensitively as plain substrings.
//
// Negative markers always win: beta pages tend to keep the join CTA in the
// markup even when the slot count is exhausted, so a "full" phrase next to
// "Join the beta" means full.
var negativeMarkers = []string{
	"beta is full",
	"currently full",
	"this beta is full",
	"no longer accepting new testers",
	"this beta isn't accepting",
	"beta has ended",
	"not available",
	"unavailable",
}

var positiveMarkers = []string{
	"join the beta",
	"accepting testers",
	"beta signup",
	"open beta",
}

// Available reports whether content strongly indicates an open slot.
//
// Conservative policy: any negative marker forces false regardless of
// positive matches, and content matching neither set is treated as
// unavailable. A false negative costs one poll interval; a false positive
// costs a spurious alert.
func Available(content string) bool {
	lowered := strings.ToLower(content)
	for _, m := range negativeMarkers {
		if strings.Contains(lowered, m) {
			return false
		}
	}
	for _, m := range positiveMarkers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}
