package intake

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/jaykayes/lottery-script/internal/domain/model"
)

// GroupRule assigns exclusive-group membership by item name: items named
// exactly like a primary become primaries, items whose name contains a
// dependent fragment become dependents of the same tag.
type GroupRule struct {
	Tag       string
	Pool      model.Pool
	Primary   []string
	Dependent []string
}

// Warning reports a rule name that matched no item in its pool.
type Warning struct {
	Tag        string
	Name       string
	Suggestion string // closest item name in the pool, if any
}

// AssignGroups returns a copy of catalog with rule memberships applied. Items
// that already carry a membership from the Group column keep it.
func AssignGroups(catalog model.Catalog, rules []GroupRule) (model.Catalog, []Warning) {
	out := make(model.Catalog, len(catalog))
	for id, it := range catalog {
		out[id] = it
	}

	var warnings []Warning
	for _, rule := range rules {
		pool := out.InPool(rule.Pool)
		ids := pool.IDs()

		for _, name := range rule.Primary {
			matched := false
			for _, id := range ids {
				it := out[id]
				if it.Name != name {
					continue
				}
				matched = true
				if it.Group.Kind == model.GroupNone {
					it.Group = model.Membership{Kind: model.GroupPrimary, Tag: rule.Tag}
					out[id] = it
				}
			}
			if !matched {
				warnings = append(warnings, Warning{Tag: rule.Tag, Name: name, Suggestion: closest(name, pool)})
			}
		}

		for _, fragment := range rule.Dependent {
			matched := false
			for _, id := range ids {
				it := out[id]
				if !strings.Contains(it.Name, fragment) {
					continue
				}
				matched = true
				if it.Group.Kind == model.GroupNone {
					it.Group = model.Membership{Kind: model.GroupDependent, Tag: rule.Tag}
					out[id] = it
				}
			}
			if !matched {
				warnings = append(warnings, Warning{Tag: rule.Tag, Name: fragment, Suggestion: closest(fragment, pool)})
			}
		}
	}
	return out, warnings
}

// closest returns the distinct item name with the smallest edit distance to
// name; ties go to the alphabetically first.
func closest(name string, pool model.Catalog) string {
	names := make([]string, 0, len(pool))
	seen := make(map[string]bool, len(pool))
	for _, it := range pool {
		if !seen[it.Name] {
			seen[it.Name] = true
			names = append(names, it.Name)
		}
	}
	sort.Strings(names)

	best, bestDist := "", -1
	for _, n := range names {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(n))
		if bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}
