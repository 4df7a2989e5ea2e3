package generate

import "strings"

// vector is one marker assignment per required field: false is Unset (O),
// true is Set (I). Index positions follow field declaration order and never
// move.
type vector []bool

// enumerate returns every marker vector for r required fields, in binary
// counting order: the all-O vector first, the all-I vector last. For r = 0 it
// returns the single empty vector, which collapses the state family to one
// type whose finalizer is available immediately.
func enumerate(r int) []vector {
	states := make([]vector, 0, 1<<r)
	for mask := 0; mask < 1<<r; mask++ {
		v := make(vector, r)
		for i := 0; i < r; i++ {
			v[i] = mask&(1<<i) != 0
		}
		states = append(states, v)
	}
	return states
}

// suffix renders the vector as its marker characters, e.g. "IO" for a
// two-field builder whose first required field is set.
func (v vector) suffix() string {
	var b strings.Builder
	for _, set := range v {
		if set {
			b.WriteByte('I')
		} else {
			b.WriteByte('O')
		}
	}
	return b.String()
}

// with returns a copy of the vector with marker i flipped to Set. Transitions
// are strictly Unset to Set, one position at a time; there is deliberately no
// inverse operation.
func (v vector) with(i int) vector {
	next := make(vector, len(v))
	copy(next, v)
	next[i] = true
	return next
}

// full reports whether every marker is Set.
func (v vector) full() bool {
	for _, set := range v {
		if !set {
			return false
		}
	}
	return true
}

// start reports whether every marker is Unset.
func (v vector) start() bool {
	for _, set := range v {
		if set {
			return false
		}
	}
	return true
}
