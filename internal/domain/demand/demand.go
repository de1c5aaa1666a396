// Package demand turns applications into per-item demand lists.
package demand

import (
	"github.com/jaykayes/lottery-script/internal/domain/model"
)

// Stats counts what the builder skipped or passed through.
type Stats struct {
	Applicants int // applicants that contributed at least one request
	Ineligible int // applicants skipped because Eligible was false
	Requests   int // requests appended to a demand list
	Unknown    int // ids not in the catalog, dropped
	Duplicates int // repeated ids within one applicant, appended anyway
}

// Build routes every applicant's requests into the demand map of the pool
// the requested item belongs to. Applicant order is preserved inside each
// demand list. No randomness is involved.
//
// Unknown ids are dropped and a repeated id is appended again: both are
// counted in Stats rather than reported as errors.
func Build(applicants []model.Applicant, catalog model.Catalog) (map[model.Pool]model.DemandMap, Stats) {
	var stats Stats
	out := make(map[model.Pool]model.DemandMap)
	for _, pool := range catalog.Pools() {
		out[pool] = make(model.DemandMap)
	}

	for _, a := range applicants {
		if !a.Eligible {
			// Filtering is intake's job; skip rather than fail if it slipped through.
			stats.Ineligible++
			continue
		}

		contributed := false
		requested := make(map[int]struct{}, len(a.Requested))
		for _, id := range a.Requested {
			item, ok := catalog.Get(id)
			if !ok {
				stats.Unknown++
				continue
			}
			if _, again := requested[id]; again {
				stats.Duplicates++
			}
			requested[id] = struct{}{}

			dm := out[item.Pool]
			dm[id] = append(dm[id], a.Identity)
			stats.Requests++
			contributed = true
		}
		if contributed {
			stats.Applicants++
		}
	}
	return out, stats
}
