package hardware

import (
	"regexp"
	"strings"
)

// Candidate is a provisional device identity pulled from one payload,
// not yet deduplicated.
type Candidate struct {
	Name         string
	Manufacturer string
	Cores        *int
	Threads      *int
	Framework    string
}

// Matcher is the fuzzy-equality predicate between GPU name strings. It
// tolerates generic-vs-specific naming (an iGPU token nested in a CPU model
// string vs a plain "Graphics" placeholder) and comma-joined multi-device
// strings. Immutable, safe for concurrent use.
type Matcher struct {
	prefixes []string
	families []string
	generics map[string]bool
}

// modelTokenRe extracts alphanumeric model codes such as 3090, 780m, a770,
// 6800xt. Bare small integers are not model codes.
var modelTokenRe = regexp.MustCompile(`\b[a-z]{0,2}[0-9]{3,4}[a-z]{0,3}\b`)

// NewMatcher builds a Matcher with the known vendor prefixes and GPU family
// tokens.
func NewMatcher() *Matcher {
	return &Matcher{
		prefixes: []string{"nvidia ", "geforce ", "amd ", "intel ", "apple "},
		families: []string{"radeon", "rtx", "gtx", "arc", "iris", "graphics"},
		generics: map[string]bool{
			"graphics":        true,
			"radeon graphics": true,
			"gpu":             true,
			"radeon":          true,
			"iris xe":         true,
		},
	}
}

// matchKey normalizes a name for comparison: lowercase, trademark markers
// and vendor/"GeForce" prefixes stripped, whitespace collapsed.
func (m *Matcher) matchKey(name string) string {
	s := strings.ToLower(Normalize(name))
	for changed := true; changed; {
		changed = false
		for _, p := range m.prefixes {
			if strings.HasPrefix(s, p) {
				s = strings.TrimPrefix(s, p)
				changed = true
			}
		}
	}
	return strings.TrimSpace(s)
}

// isGeneric reports whether the normalized name is a placeholder for a GPU
// family rather than a concrete model.
func (m *Matcher) isGeneric(key string) bool {
	if m.generics[key] {
		return true
	}
	// A name with a family token but no model code is a placeholder too.
	return len(modelTokenRe.FindAllString(key, -1)) == 0
}

// Matches reports whether two GPU name strings plausibly describe the same
// physical device. Symmetric after normalization.
func (m *Matcher) Matches(a, b string) bool {
	// Comma-joined composites: match element-wise against the other name.
	if strings.Contains(a, ",") {
		for _, part := range strings.Split(a, ",") {
			if strings.TrimSpace(part) != "" && m.Matches(strings.TrimSpace(part), b) {
				return true
			}
		}
		return false
	}
	if strings.Contains(b, ",") {
		return m.Matches(b, a)
	}

	ka, kb := m.matchKey(a), m.matchKey(b)
	if ka == "" || kb == "" {
		return false
	}
	if ka == kb {
		return true
	}

	// Shared family token where at least one side is a generic placeholder
	// for that family ("AMD Radeon Graphics" vs "AMD Radeon 880M").
	for _, fam := range m.families {
		if strings.Contains(ka, fam) && strings.Contains(kb, fam) {
			if m.isGeneric(ka) || m.isGeneric(kb) {
				return true
			}
		}
	}

	// Overlapping extracted model codes.
	for _, tok := range modelTokenRe.FindAllString(ka, -1) {
		for _, other := range modelTokenRe.FindAllString(kb, -1) {
			if tok == other {
				return true
			}
		}
	}
	return false
}

// genericIndicators lower a name's specificity score; modelTokenRe raises it.
var genericIndicators = []string{"graphics", "gpu", "device", "generic", "unknown", "integrated"}

// SpecificityScore ranks names so consolidation can keep the most concrete
// one: model codes count heavily for, generic placeholder words against,
// and longer names beat shorter ones.
func SpecificityScore(name string) int {
	key := strings.ToLower(Normalize(name))
	score := 0
	score += 3 * len(modelTokenRe.FindAllString(key, -1))
	for _, g := range genericIndicators {
		if strings.Contains(key, g) {
			score -= 2
		}
	}
	score += len(strings.Fields(key))
	return score
}

// MoreSpecific reports whether name a should replace name b as the display
// name of a device. Ties keep the incumbent, so stored names are never
// churned and never downgraded.
func MoreSpecific(a, b string) bool {
	return SpecificityScore(a) > SpecificityScore(b)
}

// Consolidate deduplicates GPU candidates: a candidate that fuzzily matches
// an already-accepted entry of the same manufacturer merges into it, keeping
// whichever name is more specific. Comma-joined composite names never
// survive on their own - an ambiguous combined-device entry is dropped
// rather than guessed at.
func (m *Matcher) Consolidate(candidates []Candidate) []Candidate {
	var kept []Candidate
	for _, cand := range candidates {
		composite := strings.Contains(cand.Name, ",")
		merged := false
		for i := range kept {
			if kept[i].Manufacturer != cand.Manufacturer {
				continue
			}
			if !m.Matches(kept[i].Name, cand.Name) {
				continue
			}
			if !composite && MoreSpecific(cand.Name, kept[i].Name) {
				kept[i].Name = cand.Name
			}
			mergeFields(&kept[i], cand)
			merged = true
			break
		}
		if merged || composite {
			continue
		}
		kept = append(kept, cand)
	}
	return kept
}

// mergeFields fills gaps in the kept entry from the duplicate.
func mergeFields(dst *Candidate, src Candidate) {
	if dst.Framework == "" {
		dst.Framework = src.Framework
	}
	if dst.Cores == nil {
		dst.Cores = src.Cores
	}
	if dst.Threads == nil {
		dst.Threads = src.Threads
	}
	if dst.Manufacturer == "Unknown" && src.Manufacturer != "" {
		dst.Manufacturer = src.Manufacturer
	}
}
