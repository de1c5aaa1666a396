package lottery

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jaykayes/lottery-script/internal/domain/draw"
	"github.com/jaykayes/lottery-script/internal/domain/model"
)

// Names of the built-in dependent policies.
const (
	PolicyExclude      = "exclude"
	PolicyGroupWinners = "group-winners"
	PolicyIndependent  = "independent"
)

// ErrUnknownPolicy is returned by PolicyByName.
var ErrUnknownPolicy = errors.New("unknown dependent policy")

// DependentPolicy decides what happens to a group's dependent items once its
// primary items are drawn. Whatever it returns, the dependent ids are removed
// from the demand map afterwards.
type DependentPolicy interface {
	Name() string
	// AllocateDependents receives a private copy of the dependents' demand
	// and the primary winners of the same group.
	AllocateDependents(group model.Group, demand model.DemandMap, primary model.WinnerMap, catalog model.Catalog, sampler draw.Sampler) (model.WinnerMap, []Outcome)
}

// ExcludeDependents never allocates dependent items. This is the default.
type ExcludeDependents struct{}

// Name implements DependentPolicy.
func (ExcludeDependents) Name() string { return PolicyExclude }

// AllocateDependents implements DependentPolicy.
func (ExcludeDependents) AllocateDependents(model.Group, model.DemandMap, model.WinnerMap, model.Catalog, draw.Sampler) (model.WinnerMap, []Outcome) {
	return model.WinnerMap{}, nil
}

// GroupWinnersOnly draws each dependent item among the applicants who
// requested it and won a primary item of the same group.
type GroupWinnersOnly struct{}

// Name implements DependentPolicy.
func (GroupWinnersOnly) Name() string { return PolicyGroupWinners }

// AllocateDependents implements DependentPolicy.
func (GroupWinnersOnly) AllocateDependents(_ model.Group, demand model.DemandMap, primary model.WinnerMap, catalog model.Catalog, sampler draw.Sampler) (model.WinnerMap, []Outcome) {
	groupWinners := make(map[string]struct{})
	for _, who := range primary {
		for _, w := range who {
			groupWinners[w] = struct{}{}
		}
	}

	filtered := make(model.DemandMap, len(demand))
	for id, applicants := range demand {
		seen := make(map[string]struct{}, len(applicants))
		for _, who := range applicants {
			if _, ok := groupWinners[who]; !ok {
				continue
			}
			if _, dup := seen[who]; dup {
				continue
			}
			seen[who] = struct{}{}
			filtered[id] = append(filtered[id], who)
		}
	}
	return allocate(filtered, catalog, sampler)
}

// IndependentDependents draws dependent items like any other item, ignoring
// the primary outcome.
type IndependentDependents struct{}

// Name implements DependentPolicy.
func (IndependentDependents) Name() string { return PolicyIndependent }

// AllocateDependents implements DependentPolicy.
func (IndependentDependents) AllocateDependents(_ model.Group, demand model.DemandMap, _ model.WinnerMap, catalog model.Catalog, sampler draw.Sampler) (model.WinnerMap, []Outcome) {
	return allocate(demand, catalog, sampler)
}

var policies = map[string]DependentPolicy{
	PolicyExclude:      ExcludeDependents{},
	PolicyGroupWinners: GroupWinnersOnly{},
	PolicyIndependent:  IndependentDependents{},
}

// PolicyByName resolves a configured policy name; empty means the default.
func PolicyByName(name string) (DependentPolicy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return ExcludeDependents{}, nil
	}
	p, ok := policies[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownPolicy, name, strings.Join(PolicyNames(), ", "))
	}
	return p, nil
}

// PolicyNames lists the built-in policy names.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
