package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Amounts maps metabolite identifiers to non-negative molecule counts.
// It is used both for free pools and for stoichiometric requirements.
type Amounts map[string]int

// Clone returns an independent copy of a.
func (a Amounts) Clone() Amounts {
	out := make(Amounts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Add adds every count in other into a.
func (a Amounts) Add(other Amounts) {
	for k, v := range other {
		if v < 0 {
			panic(fmt.Sprintf("Amounts.Add: negative amount %d for %q", v, k))
		}
		a[k] += v
	}
}

// Sub removes other from a. Going below zero is a contract violation.
func (a Amounts) Sub(other Amounts) {
	for k, v := range other {
		if a[k] < v {
			panic(fmt.Sprintf("Amounts.Sub: %q would go negative (%d - %d)", k, a[k], v))
		}
	}
	for k, v := range other {
		a[k] -= v
	}
}

// Covers reports whether a holds at least the counts required by req.
func (a Amounts) Covers(req Amounts) bool {
	for k, v := range req {
		if a[k] < v {
			return false
		}
	}
	return true
}

// Scale returns a new Amounts with every count multiplied by n.
func (a Amounts) Scale(n int) Amounts {
	out := make(Amounts, len(a))
	for k, v := range a {
		out[k] = v * n
	}
	return out
}

// Total returns the sum of all counts.
func (a Amounts) Total() int {
	total := 0
	for _, v := range a {
		total += v
	}
	return total
}

// Any reports whether at least one count is positive.
func (a Amounts) Any() bool {
	for _, v := range a {
		if v > 0 {
			return true
		}
	}
	return false
}

// Keys returns the metabolite identifiers in sorted order.
func (a Amounts) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a Amounts) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range a.Keys() {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s:%d", k, a[k])
	}
	sb.WriteString("}")
	return sb.String()
}
