package pipeline

import (
	"fmt"
	"sort"

	"github.com/ludokit/gamescan/internal/stage"
)

// sortStages resolves RunAfter declarations into an execution order
// using Kahn's algorithm. Constraints on kinds that are not part of the
// given set are ignored: a stage that orders itself after "artwork"
// still runs when artwork was filtered out for this game.
//
// Ties are broken by kind name so the order is deterministic; stable
// ordering keeps progress sequences reproducible across runs.
func sortStages(stages []stage.Stage) ([]stage.Stage, error) {
	byKind := make(map[stage.Kind]stage.Stage, len(stages))
	for _, s := range stages {
		if _, ok := byKind[s.Kind()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStage, s.Kind())
		}
		byKind[s.Kind()] = s
	}

	// indegree counts unmet constraints; dependents maps a kind to the
	// kinds waiting on it.
	indegree := make(map[stage.Kind]int, len(stages))
	dependents := make(map[stage.Kind][]stage.Kind, len(stages))
	for _, s := range stages {
		indegree[s.Kind()] = 0
	}
	for _, s := range stages {
		for _, after := range s.RunAfter() {
			if _, ok := byKind[after]; !ok {
				continue
			}
			indegree[s.Kind()]++
			dependents[after] = append(dependents[after], s.Kind())
		}
	}

	ready := make([]stage.Kind, 0, len(stages))
	for kind, deg := range indegree {
		if deg == 0 {
			ready = append(ready, kind)
		}
	}

	ordered := make([]stage.Stage, 0, len(stages))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		kind := ready[0]
		ready = ready[1:]

		ordered = append(ordered, byKind[kind])
		for _, dep := range dependents[kind] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(ordered) != len(stages) {
		remaining := make([]string, 0, len(stages)-len(ordered))
		for kind, deg := range indegree {
			if deg > 0 {
				remaining = append(remaining, string(kind))
			}
		}
		sort.Strings(remaining)
		return nil, fmt.Errorf("%w: %v", ErrStageCycle, remaining)
	}
	return ordered, nil
}
