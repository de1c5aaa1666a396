// Package types contains the serialized draw record shared by the snapshot
// stores, the renderers and the HTTP API.
package types

import (
	"strconv"
	"time"

	"github.com/jaykayes/lottery-script/internal/domain/model"
)

// Item is a won item with its catalog name.
type Item struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Winner is one row of a pool's handout list.
type Winner struct {
	Identity string `json:"identity" yaml:"identity"`
	Items    []Item `json:"items" yaml:"items"`
}

// PoolResult is the ordered handout list of one pool.
type PoolResult struct {
	Pool    string   `json:"pool" yaml:"pool"`
	Winners []Winner `json:"winners" yaml:"winners"`
}

// Snapshot is the persisted outcome of one draw.
type Snapshot struct {
	RunID     string       `json:"run_id" yaml:"run_id"`
	LotteryID string       `json:"lottery_id" yaml:"lottery_id"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at"`
	Seed      *uint64      `json:"seed,omitempty" yaml:"seed,omitempty"`
	Policy    string       `json:"policy" yaml:"policy"`
	Pools     []PoolResult `json:"pools" yaml:"pools"`
}

// Summary lists a snapshot without its winners.
type Summary struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	LotteryID string    `json:"lottery_id" yaml:"lottery_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Winners   int       `json:"winners" yaml:"winners"`
	Units     int       `json:"units" yaml:"units"`
}

// NewPoolResult names the items of ordered entries. Ids missing from the
// catalog are shown as "#<id>".
func NewPoolResult(pool model.Pool, entries []model.Entry, catalog model.Catalog) PoolResult {
	res := PoolResult{Pool: string(pool), Winners: make([]Winner, 0, len(entries))}
	for _, e := range entries {
		w := Winner{Identity: e.Identity, Items: make([]Item, 0, len(e.Items))}
		for _, id := range e.Items {
			name := "#" + strconv.Itoa(id)
			if it, ok := catalog.Get(id); ok {
				name = it.Name
			}
			w.Items = append(w.Items, Item{ID: id, Name: name})
		}
		res.Winners = append(res.Winners, w)
	}
	return res
}

// Pool finds a pool's result by name.
func (s *Snapshot) Pool(name string) (PoolResult, bool) {
	for _, p := range s.Pools {
		if p.Pool == name {
			return p, true
		}
	}
	return PoolResult{}, false
}

// Summary counts distinct winners per pool and units across pools.
func (s *Snapshot) Summary() Summary {
	sum := Summary{RunID: s.RunID, LotteryID: s.LotteryID, CreatedAt: s.CreatedAt}
	for _, p := range s.Pools {
		sum.Winners += len(p.Winners)
		for _, w := range p.Winners {
			sum.Units += len(w.Items)
		}
	}
	return sum
}

// Names returns the item names of a winner in order.
func (w Winner) Names() []string {
	names := make([]string, len(w.Items))
	for i, it := range w.Items {
		names[i] = it.Name
	}
	return names
}
