// Package winners turns per-item winner lists into per-applicant results.
package winners

import (
	"sort"

	"github.com/jaykayes/lottery-script/internal/domain/model"
)

// Aggregate inverts item -> winners maps into identity -> items and merges
// them in the order given. Within one map items are visited in ascending id
// order. An identity listed twice for an item gets the item twice.
func Aggregate(maps ...model.WinnerMap) model.AggregatedWinners {
	out := make(model.AggregatedWinners)
	for _, m := range maps {
		for _, id := range m.Items() {
			for _, who := range m[id] {
				out[who] = append(out[who], id)
			}
		}
	}
	return out
}

// Order returns one entry per identity, sorted by identity with plain byte
// comparison. Each entry keeps the aggregation order of its items.
func Order(aggregated model.AggregatedWinners) []model.Entry {
	entries := make([]model.Entry, 0, len(aggregated))
	for who, items := range aggregated {
		entries = append(entries, model.Entry{Identity: who, Items: append([]int(nil), items...)})
	}
	return OrderEntries(entries)
}

// OrderEntries sorts entries in place by identity, keeping the relative order
// of equal identities, and returns them. Sorting sorted output is a no-op.
func OrderEntries(entries []model.Entry) []model.Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Identity < entries[j].Identity
	})
	return entries
}

// Count returns the number of distinct winners and units won.
func Count(aggregated model.AggregatedWinners) (applicants, units int) {
	for _, items := range aggregated {
		applicants++
		units += len(items)
	}
	return applicants, units
}
