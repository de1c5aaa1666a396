// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"sort"
)

// Pool names a distribution pool. Items, demand and winners are partitioned
// by pool and every pool gets its own output sheet.
type Pool string

// GroupKind tells how an item takes part in an exclusive group.
type GroupKind int

const (
	// GroupNone marks an ordinary item.
	GroupNone GroupKind = iota
	// GroupPrimary marks a mutually exclusive variant; an applicant wins at
	// most one primary item per group tag.
	GroupPrimary
	// GroupDependent marks an accessory whose allocation hangs on the
	// outcome of the primary group named by its tag.
	GroupDependent
)

// String implements fmt.Stringer.
func (k GroupKind) String() string {
	switch k {
	case GroupPrimary:
		return "primary"
	case GroupDependent:
		return "dependent"
	default:
		return "none"
	}
}

// Membership is an item's exclusive-group role. For a dependent item Tag is
// the tag of the primary group it is linked to.
type Membership struct {
	Kind GroupKind
	Tag  string
}

// InventoryItem is one catalog row. Immutable after load.
type InventoryItem struct {
	ID    int
	Name  string
	Stock int
	Group Membership
	Pool  Pool
}

// Available returns the number of units that can be handed out; negative
// stock counts as none.
func (i InventoryItem) Available() int {
	if i.Stock < 0 {
		return 0
	}
	return i.Stock
}

// Group is an exclusive group resolved from the catalog.
type Group struct {
	Tag       string
	Pool      Pool
	Primary   []int // ascending
	Dependent []int // ascending
}

// Catalog indexes inventory items by id.
type Catalog map[int]InventoryItem

// Sentinel kinds for catalog validation.
var (
	ErrDuplicateItem = errors.New("duplicate item id")
	ErrGroupSpan     = errors.New("exclusive group spans pools")
	ErrOrphanGroup   = errors.New("dependent item linked to unknown group")
)

// NewCatalog builds a catalog; later items with the same id replace earlier
// ones. Use Validate to reject such input.
func NewCatalog(items ...InventoryItem) Catalog {
	c := make(Catalog, len(items))
	for _, it := range items {
		c[it.ID] = it
	}
	return c
}

// Get looks an item up by id.
func (c Catalog) Get(id int) (InventoryItem, bool) {
	it, ok := c[id]
	return it, ok
}

// Has reports whether id is in the catalog.
func (c Catalog) Has(id int) bool {
	_, ok := c[id]
	return ok
}

// IDs returns all item ids in ascending order.
func (c Catalog) IDs() []int {
	return sortedKeys(c)
}

// Pools returns the distinct pools in ascending order.
func (c Catalog) Pools() []Pool {
	seen := make(map[Pool]struct{})
	for _, it := range c {
		seen[it.Pool] = struct{}{}
	}
	pools := make([]Pool, 0, len(seen))
	for p := range seen {
		pools = append(pools, p)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i] < pools[j] })
	return pools
}

// InPool returns the subset of the catalog that belongs to pool.
func (c Catalog) InPool(pool Pool) Catalog {
	out := make(Catalog)
	for id, it := range c {
		if it.Pool == pool {
			out[id] = it
		}
	}
	return out
}

// Groups resolves exclusive groups ordered by tag. Only tags with at least
// one primary item form a group; the group's pool is the pool of its lowest
// primary id.
func (c Catalog) Groups() []Group {
	byTag := make(map[string]*Group)
	for _, id := range c.IDs() {
		it := c[id]
		if it.Group.Kind != GroupPrimary {
			continue
		}
		g, ok := byTag[it.Group.Tag]
		if !ok {
			g = &Group{Tag: it.Group.Tag, Pool: it.Pool}
			byTag[it.Group.Tag] = g
		}
		g.Primary = append(g.Primary, id)
	}
	for _, id := range c.IDs() {
		it := c[id]
		if it.Group.Kind != GroupDependent {
			continue
		}
		if g, ok := byTag[it.Group.Tag]; ok {
			g.Dependent = append(g.Dependent, id)
		}
	}

	groups := make([]Group, 0, len(byTag))
	for _, g := range byTag {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Tag < groups[j].Tag })
	return groups
}

// Validate checks the structural rules the engine relies on: every group
// lives in one pool and every dependent item links to an existing group.
func (c Catalog) Validate() error {
	groups := c.Groups()
	known := make(map[string]Group, len(groups))
	for _, g := range groups {
		known[g.Tag] = g
	}
	for _, id := range c.IDs() {
		it := c[id]
		switch it.Group.Kind {
		case GroupPrimary:
			if g := known[it.Group.Tag]; g.Pool != it.Pool {
				return fmt.Errorf("item %d %q in pool %q, group %q in pool %q: %w",
					id, it.Name, it.Pool, g.Tag, g.Pool, ErrGroupSpan)
			}
		case GroupDependent:
			g, ok := known[it.Group.Tag]
			if !ok {
				return fmt.Errorf("item %d %q links to %q: %w", id, it.Name, it.Group.Tag, ErrOrphanGroup)
			}
			if g.Pool != it.Pool {
				return fmt.Errorf("item %d %q in pool %q, group %q in pool %q: %w",
					id, it.Name, it.Pool, g.Tag, g.Pool, ErrGroupSpan)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
