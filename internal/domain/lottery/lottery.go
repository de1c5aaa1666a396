// Package lottery draws winners per item.
//
// Two passes exist. Allocate runs an independent draw per item. AllocateExclusive
// runs the draw for one exclusive group, where each applicant can win at most
// one primary item, and takes the group's items out of the demand map so the
// independent pass never sees them.
package lottery

import (
	"github.com/jaykayes/lottery-script/internal/domain/draw"
	"github.com/jaykayes/lottery-script/internal/domain/model"
)

// Outcome describes how one item was allocated.
type Outcome struct {
	Item           int
	Demand         int // entries considered for the draw
	Winners        int
	Oversubscribed bool // randomness was used
}

// Allocate draws winners for every item in demand. When an item's demand
// fits its stock everyone wins in demand order and no randomness is used;
// otherwise exactly stock entries are sampled without replacement. demand is
// not modified. Items unknown to the catalog are skipped.
func Allocate(demand model.DemandMap, catalog model.Catalog, sampler draw.Sampler) model.WinnerMap {
	winners, _ := allocate(demand, catalog, sampler)
	return winners
}

// AllocateWithOutcomes is Allocate plus a per-item report, in item order.
func AllocateWithOutcomes(demand model.DemandMap, catalog model.Catalog, sampler draw.Sampler) (model.WinnerMap, []Outcome) {
	return allocate(demand, catalog, sampler)
}

func allocate(demand model.DemandMap, catalog model.Catalog, sampler draw.Sampler) (model.WinnerMap, []Outcome) {
	winners := make(model.WinnerMap, len(demand))
	outcomes := make([]Outcome, 0, len(demand))
	for _, id := range demand.Items() {
		item, ok := catalog.Get(id)
		if !ok {
			continue
		}
		won, out := drawItem(item, demand[id], sampler)
		winners[id] = won
		outcomes = append(outcomes, out)
	}
	return winners, outcomes
}

// drawItem applies the stock rule to one demand list.
func drawItem(item model.InventoryItem, applicants []string, sampler draw.Sampler) ([]string, Outcome) {
	stock := item.Available()
	out := Outcome{Item: item.ID, Demand: len(applicants)}

	var won []string
	if len(applicants) <= stock {
		won = append([]string{}, applicants...)
	} else {
		won = sampler.Sample(applicants, stock)
		out.Oversubscribed = true
	}
	out.Winners = len(won)
	return won, out
}
