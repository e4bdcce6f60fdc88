// Package pageselect implements the page selector (spec.md §4.8): computing
// the ordered set of 0-based page indices to process for a RangeSelector.
package pageselect

import (
	"sort"
	"strconv"
	"strings"
)

// Selector mirrors spec.md's RangeSelector enumeration.
type Selector int

const (
	All Selector = iota
	Odd
	Even
	Custom
)

// Resolve computes the sorted, deduplicated list of 0-based page indices for
// total pages under sel (and, for Custom, customRange). An empty or
// unparsable Custom range yields an empty slice; the orchestrator is
// responsible for widening that to All per spec.md §4.8/§7 (RangeUnparsed).
func Resolve(total int, sel Selector, customRange string) []int {
	switch sel {
	case Odd:
		return rangeWhere(total, func(oneBased int) bool { return oneBased%2 == 1 })
	case Even:
		return rangeWhere(total, func(oneBased int) bool { return oneBased%2 == 0 })
	case Custom:
		return resolveCustom(total, customRange)
	default: // All
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
}

func rangeWhere(total int, keep func(oneBased int) bool) []int {
	var out []int
	for n := 1; n <= total; n++ {
		if keep(n) {
			out = append(out, n-1)
		}
	}
	return out
}

// resolveCustom parses "range := part (\",\" part)*; part := N | N \"-\" N"
// per spec.md §4.8/§6, swapping a>b ranges, skipping pages outside
// [1,total], and collapsing duplicates. It never returns an error: an unparsable part is
// simply skipped, and a wholly unparsable string yields an empty slice.
func resolveCustom(total int, s string) []int {
	seen := map[int]bool{}
	var out []int

	add := func(oneBased int) {
		if oneBased < 1 || oneBased > total {
			return
		}
		idx := oneBased - 1
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.ReplaceAll(part, " ", "")
		if part == "" {
			continue
		}
		if dash := strings.IndexByte(part, '-'); dash >= 0 {
			aStr, bStr := part[:dash], part[dash+1:]
			a, errA := strconv.Atoi(aStr)
			b, errB := strconv.Atoi(bStr)
			if errA != nil || errB != nil {
				continue
			}
			if a > b {
				a, b = b, a
			}
			for n := a; n <= b; n++ {
				add(n)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		add(n)
	}

	sort.Ints(out)
	return out
}
