package filename

import "strings"

// NormalizeTags splits entries on whitespace, uppercases the tokens and
// collapses duplicates, keeping the order of first appearance. It does not
// check the token alphabet; see [Parts.Validate].
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, entry := range tags {
		for _, t := range strings.Fields(strings.ToUpper(entry)) {
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// EditTags appends add to current, then drops every tag in remove. The
// result is normalized: retained tags keep their order, new tags follow.
func EditTags(current, add, remove []string) []string {
	merged := NormalizeTags(append(append([]string(nil), current...), add...))
	drop := make(map[string]bool, len(remove))
	for _, t := range NormalizeTags(remove) {
		drop[t] = true
	}
	out := merged[:0]
	for _, t := range merged {
		if !drop[t] {
			out = append(out, t)
		}
	}
	return out
}

// CountShared returns how many distinct tags of want appear in have.
func CountShared(have, want []string) int {
	present := make(map[string]bool, len(have))
	for _, t := range have {
		present[strings.ToUpper(t)] = true
	}
	n := 0
	for _, t := range NormalizeTags(want) {
		if present[t] {
			n++
		}
	}
	return n
}
