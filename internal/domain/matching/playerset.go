package matching

import "sort"

// PlayerSet is an unordered set of player ids.
type PlayerSet map[string]struct{}

func NewPlayerSet(ids ...string) PlayerSet {
	out := make(PlayerSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}

func (s PlayerSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s PlayerSet) Len() int {
	return len(s)
}

func (s PlayerSet) Clone() PlayerSet {
	out := make(PlayerSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Intersect returns the ids present in both sets.
func (s PlayerSet) Intersect(other PlayerSet) PlayerSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(PlayerSet, len(small))
	for id := range small {
		if large.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Without returns a copy of s minus id.
func (s PlayerSet) Without(id string) PlayerSet {
	out := s.Clone()
	delete(out, id)
	return out
}

// Sorted returns ids in ascending order.
func (s PlayerSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
