// Package schedule resolves a set of stages and their dependencies into
// absolute intervals on one shared timeline, critical-path style.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ivlev/choreo/internal/errors"
	"github.com/ivlev/choreo/internal/stage"
)

// Interval is the window a stage occupies. The stage produces effects from
// ActiveStart (Start plus its delay) until End.
type Interval struct {
	Start       time.Duration
	ActiveStart time.Duration
	End         time.Duration
}

// Width is End minus Start.
func (iv Interval) Width() time.Duration { return iv.End - iv.Start }

// Schedule is a resolved timeline. It is never mutated after Resolve returns.
type Schedule struct {
	Intervals map[string]Interval
	// Order is a topological order of the stage ids; ties keep declaration order.
	Order []string
	Total time.Duration

	deps map[string][]string
}

// Interval returns the window of one stage.
func (s *Schedule) Interval(id string) (Interval, bool) {
	iv, ok := s.Intervals[id]
	return iv, ok
}

// Len is the number of scheduled stages.
func (s *Schedule) Len() int { return len(s.Order) }

// Dependencies returns the declared predecessors of a stage.
func (s *Schedule) Dependencies(id string) []string { return s.deps[id] }

// CriticalPath returns the chain of stages that determines Total, from the
// first stage to the last.
func (s *Schedule) CriticalPath() []string {
	if len(s.Order) == 0 {
		return nil
	}

	var tail string
	for _, id := range s.Order {
		if s.Intervals[id].End == s.Total {
			tail = id
			break
		}
	}

	path := []string{tail}
	for cur := tail; ; {
		start := s.Intervals[cur].Start
		next := ""
		for _, dep := range s.deps[cur] {
			if s.Intervals[dep].End == start {
				next = dep
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		cur = next
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// String renders the schedule as an aligned table in topological order.
func (s *Schedule) String() string {
	var b strings.Builder
	width := 0
	for _, id := range s.Order {
		if len(id) > width {
			width = len(id)
		}
	}
	for _, id := range s.Order {
		iv := s.Intervals[id]
		fmt.Fprintf(&b, "%-*s  %8s  %8s  %8s\n", width, id, iv.Start, iv.ActiveStart, iv.End)
	}
	fmt.Fprintf(&b, "%-*s  %8s\n", width, "total", s.Total)
	return b.String()
}

// Resolve validates stages and performs the forward pass. Every stage starts
// when the last of its dependencies ends; stages without dependencies start
// at zero. Looping stages run until the end of the timeline.
func Resolve(stages []stage.Stage) (*Schedule, error) {
	index := make(map[string]int, len(stages))
	for i := range stages {
		st := &stages[i]
		if err := st.Validate(); err != nil {
			return nil, err
		}
		if _, dup := index[st.ID]; dup {
			return nil, errors.NewInvalidStageError(st.ID, "duplicate stage id")
		}
		index[st.ID] = i
	}

	deps := make(map[string][]string, len(stages))
	for i := range stages {
		st := &stages[i]
		seen := make(map[string]bool, len(st.DependsOn))
		for _, dep := range st.DependsOn {
			j, ok := index[dep]
			if !ok {
				return nil, errors.NewInvalidStageError(st.ID, fmt.Sprintf("depends on unknown stage %q", dep)).
					WithSuggestion("Check the dependency id for typos")
			}
			if stages[j].Looping() && dep != st.ID {
				return nil, errors.NewInvalidStageError(st.ID, fmt.Sprintf("depends on %q which repeats forever", dep))
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			deps[st.ID] = append(deps[st.ID], dep)
		}
	}

	if path := findCycle(stages, deps); path != nil {
		return nil, errors.NewCycleError(path)
	}

	order := topoSort(stages, index, deps)

	sched := &Schedule{
		Intervals: make(map[string]Interval, len(stages)),
		Order:     order,
		deps:      deps,
	}
	for _, id := range order {
		st := &stages[index[id]]
		var start time.Duration
		for _, dep := range deps[id] {
			if end := sched.Intervals[dep].End; end > start {
				start = end
			}
		}
		iv := Interval{
			Start:       start,
			ActiveStart: start + st.Delay,
			End:         start + st.EffectiveDuration(),
		}
		sched.Intervals[id] = iv
		if iv.End > sched.Total {
			sched.Total = iv.End
		}
	}

	for i := range stages {
		if stages[i].Looping() {
			iv := sched.Intervals[stages[i].ID]
			iv.End = sched.Total
			sched.Intervals[stages[i].ID] = iv
		}
	}

	return sched, nil
}

// findCycle walks the graph depth first in declaration order and returns the
// first cycle found as a closed path, e.g. [a b a].
func findCycle(stages []stage.Stage, deps map[string][]string) []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(stages))

	var visit func(id string, path []string) []string
	visit = func(id string, path []string) []string {
		state[id] = visiting
		path = append(path, id)
		for _, dep := range deps[id] {
			switch state[dep] {
			case visiting:
				for i, p := range path {
					if p == dep {
						cycle := append([]string{}, path[i:]...)
						return append(cycle, dep)
					}
				}
			case unvisited:
				if cycle := visit(dep, path); cycle != nil {
					return cycle
				}
			}
		}
		state[id] = done
		return nil
	}

	for i := range stages {
		if state[stages[i].ID] == unvisited {
			if cycle := visit(stages[i].ID, nil); cycle != nil {
				// report the cycle in dependency order: a -> b means b depends on a
				for l, r := 0, len(cycle)-1; l < r; l, r = l+1, r-1 {
					cycle[l], cycle[r] = cycle[r], cycle[l]
				}
				return cycle
			}
		}
	}
	return nil
}

// topoSort is Kahn's algorithm; among ready stages the earliest declared goes
// first. The graph must be acyclic.
func topoSort(stages []stage.Stage, index map[string]int, deps map[string][]string) []string {
	indegree := make(map[string]int, len(stages))
	dependents := make(map[string][]string, len(stages))
	for i := range stages {
		id := stages[i].ID
		indegree[id] = len(deps[id])
		for _, dep := range deps[id] {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []int
	for i := range stages {
		if indegree[stages[i].ID] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]string, 0, len(stages))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		id := stages[i].ID
		order = append(order, id)

		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				j := index[next]
				pos := sort.SearchInts(ready, j)
				ready = append(ready, 0)
				copy(ready[pos+1:], ready[pos:])
				ready[pos] = j
			}
		}
	}
	return order
}
