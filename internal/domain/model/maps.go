package model

// DemandMap maps an item id to the identities that requested it, in
// application order. The same identity may appear more than once.
type DemandMap map[int][]string

// Items returns the item ids in ascending order. Every consumer of
// randomness walks this order so seeded runs repeat exactly.
func (d DemandMap) Items() []int {
	return sortedKeys(d)
}

// Clone returns a copy that shares no slices with d.
func (d DemandMap) Clone() DemandMap {
	out := make(DemandMap, len(d))
	for id, who := range d {
		out[id] = append([]string(nil), who...)
	}
	return out
}

// WinnerMap maps an item id to the identities that won one unit of it.
type WinnerMap map[int][]string

// Items returns the item ids in ascending order.
func (w WinnerMap) Items() []int {
	return sortedKeys(w)
}

// AggregatedWinners maps an identity to the item ids it won, in the order
// they were merged. Scoped to one distribution pool.
type AggregatedWinners map[string][]int

// PoolWinners holds the aggregated winners of every pool.
type PoolWinners map[Pool]AggregatedWinners

// Entry is one ordered output row: an applicant and the items it won.
type Entry struct {
	Identity string
	Items    []int
}
