// Package hardware resolves free-text device descriptions from benchmark
// payloads into canonical, deduplicated CPU/GPU identities.
package hardware

import (
	"regexp"
	"strings"
)

// trademarkMarkers are stripped from names everywhere; they carry no
// identity information and vary between tools reporting the same device.
var trademarkMarkers = []string{"(R)", "(TM)", "(C)", "(r)", "(tm)", "(c)", "®", "™"}

var slugRuns = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize canonicalizes a free-text device name: whitespace collapsed,
// trademark markers removed. The "Graphics" suffix stays - it is part of
// the display name and only stripped for matching (see matchKey).
// Total for any input, including empty and non-ASCII strings.
func Normalize(name string) string {
	for _, marker := range trademarkMarkers {
		name = strings.ReplaceAll(name, marker, "")
	}
	return strings.Join(strings.Fields(name), " ")
}

// Slugify derives the stable device id from a name: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, leading/trailing hyphens
// trimmed. An empty result maps to the literal "unknown". The id is a pure
// function of the normalized name, so the same name always yields the same
// id.
func Slugify(name string) string {
	s := strings.ToLower(Normalize(name))
	s = slugRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unknown"
	}
	return s
}
