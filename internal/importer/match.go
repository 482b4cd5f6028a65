package importer

import "strings"

// Candidate is a catalog entry that imported names can be linked to.
type Candidate struct {
	ID    uint
	Names []string
}

// Matcher links ingredient names to catalog entries, tolerating small typos.
type Matcher struct {
	candidates []Candidate
}

// NewMatcher indexes candidates.
func NewMatcher(candidates []Candidate) *Matcher {
	return &Matcher{candidates: candidates}
}

// Match returns the ID of the first candidate whose name is close to name,
// or 0.
func (m *Matcher) Match(name string) uint {
	target := normalizeName(name)
	if m == nil || target == "" {
		return 0
	}
	for _, c := range m.candidates {
		for _, alias := range c.Names {
			if normalizeName(alias) == target {
				return c.ID
			}
		}
	}
	for _, c := range m.candidates {
		for _, alias := range c.Names {
			if similar(normalizeName(alias), target) {
				return c.ID
			}
		}
	}
	return 0
}

func normalizeName(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func similar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	limit := 1
	if len(a) >= 8 || len(b) >= 8 {
		limit = 2
	}
	if len(a) >= 12 || len(b) >= 12 {
		limit = 3
	}
	return levenshtein(a, b) <= limit
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
