package lottery

import (
	"sort"

	"github.com/jaykayes/lottery-script/internal/domain/draw"
	"github.com/jaykayes/lottery-script/internal/domain/model"
)

// ExclusiveResult is the outcome of one exclusive-group round.
type ExclusiveResult struct {
	// Primary holds the winners per primary item.
	Primary model.WinnerMap
	// Dependent holds whatever the dependent policy allocated; empty under
	// the default policy.
	Dependent model.WinnerMap
	// Order is the randomized order the primary items were processed in.
	Order []int
	// Outcomes reports primary items first, then dependent items.
	Outcomes []Outcome
	// Excluded counts demand entries dropped because the applicant had
	// already won an earlier item of the group.
	Excluded int
	// Removed lists the ids deleted from the demand map, ascending.
	Removed []int
}

// wonSet is the running set of identities that already won in the group.
type wonSet map[string]struct{}

// AllocateExclusive runs the draw for one exclusive group and mutates demand:
//
//  1. primary items are visited in a uniformly random order;
//  2. each item's demand is reduced to distinct identities that have not won
//     an earlier item of the group, then drawn with the usual stock rule;
//  3. the dependent items are handed to policy (nil means ExcludeDependents);
//  4. every primary and dependent id is deleted from demand, whether or not
//     anything was allocated for it.
//
// Ids missing from the catalog or from demand allocate nothing.
func AllocateExclusive(group model.Group, demand model.DemandMap, catalog model.Catalog, sampler draw.Sampler, policy DependentPolicy) ExclusiveResult {
	if policy == nil {
		policy = ExcludeDependents{}
	}

	res := ExclusiveResult{
		Primary: make(model.WinnerMap, len(group.Primary)),
		Order:   processingOrder(group.Primary, sampler),
	}

	won := make(wonSet)
	for _, id := range res.Order {
		item, ok := catalog.Get(id)
		if !ok {
			continue
		}
		applicants, ok := demand[id]
		if !ok {
			continue
		}

		var (
			winners  []string
			out      Outcome
			excluded int
		)
		winners, won, out, excluded = drawGroupItem(item, applicants, won, sampler)
		res.Primary[id] = winners
		res.Outcomes = append(res.Outcomes, out)
		res.Excluded += excluded
	}

	dependentDemand := make(model.DemandMap, len(group.Dependent))
	for _, id := range group.Dependent {
		if applicants, ok := demand[id]; ok {
			dependentDemand[id] = append([]string(nil), applicants...)
		}
	}
	var depOutcomes []Outcome
	res.Dependent, depOutcomes = policy.AllocateDependents(group, dependentDemand, res.Primary, catalog, sampler)
	res.Outcomes = append(res.Outcomes, depOutcomes...)

	res.Removed = removeGroup(group, demand)
	return res
}

// processingOrder returns the primary ids in a random permutation. The ids
// are sorted first so a seeded sampler yields the same order for the same
// group regardless of how the caller listed them.
func processingOrder(ids []int, sampler draw.Sampler) []int {
	order := append([]int(nil), ids...)
	sort.Ints(order)
	sampler.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

// drawGroupItem draws one primary item against the running won set and
// returns the set extended by this item's winners.
func drawGroupItem(item model.InventoryItem, applicants []string, won wonSet, sampler draw.Sampler) ([]string, wonSet, Outcome, int) {
	eligible := make([]string, 0, len(applicants))
	seen := make(map[string]struct{}, len(applicants))
	excluded := 0
	for _, who := range applicants {
		if _, dup := seen[who]; dup {
			continue
		}
		seen[who] = struct{}{}
		if _, already := won[who]; already {
			excluded++
			continue
		}
		eligible = append(eligible, who)
	}

	winners, out := drawItem(item, eligible, sampler)
	for _, who := range winners {
		won[who] = struct{}{}
	}
	return winners, won, out, excluded
}

// removeGroup deletes every primary and dependent id from demand.
func removeGroup(group model.Group, demand model.DemandMap) []int {
	ids := make([]int, 0, len(group.Primary)+len(group.Dependent))
	ids = append(ids, group.Primary...)
	ids = append(ids, group.Dependent...)
	sort.Ints(ids)
	for _, id := range ids {
		delete(demand, id)
	}
	return ids
}
