package library

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sequence allocates human-readable ids of the form PREFIX-NNN.
type Sequence struct {
	Prefix string
	Width  int
}

// Default sequences.
var (
	BookIDs   = Sequence{Prefix: "GDL", Width: 3}
	MemberIDs = Sequence{Prefix: "MEM", Width: 3}
)

// Parse returns the numeric suffix of id, or false when id is not of the
// form PREFIX-digits. The prefix match ignores case.
func (s Sequence) Parse(id string) (int, bool) {
	rest, ok := cutPrefixFold(strings.TrimSpace(id), s.Prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Format renders n as a zero-padded id.
func (s Sequence) Format(n int) string {
	return fmt.Sprintf("%s-%0*d", s.Prefix, s.Width, n)
}

// Next returns the id after the highest parseable id in existing.
// Non-matching ids are ignored.
func (s Sequence) Next(existing []string) string {
	return s.NextN(existing, 1)[0]
}

// NextN returns n consecutive ids following the highest parseable id.
func (s Sequence) NextN(existing []string, n int) []string {
	highest := 0
	for _, id := range existing {
		if v, ok := s.Parse(id); ok && v > highest {
			highest = v
		}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = s.Format(highest + 1 + i)
	}
	return out
}

// Renumber sorts rows by the numeric suffix of their id (rows without one
// sort last, in their original order), relabels them PREFIX-001..PREFIX-N and
// returns the old-to-new mapping of the ids that changed. Running it twice
// without an intervening delete yields an empty map.
func Renumber[T any](s Sequence, rows []T, idOf func(*T) *string) map[string]string {
	type keyed struct {
		n  int
		ok bool
	}
	keys := make([]keyed, len(rows))
	for i := range rows {
		n, ok := s.Parse(*idOf(&rows[i]))
		keys[i] = keyed{n, ok}
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.ok != kb.ok {
			return ka.ok
		}
		return ka.ok && ka.n < kb.n
	})

	sorted := make([]T, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)

	changed := make(map[string]string)
	for i := range rows {
		id := idOf(&rows[i])
		next := s.Format(i + 1)
		if *id != next {
			if _, seen := changed[*id]; !seen {
				changed[*id] = next
			}
			*id = next
		}
	}
	return changed
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
