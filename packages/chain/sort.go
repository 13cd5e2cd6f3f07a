package chain

import (
	"fmt"
	"strings"
)

// CircularDependencyError is returned when dependsOn links form a cycle
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

// TopologicalSort orders requests so each one follows the request it depends
// on. Traversal starts from each request in input order. A dependsOn that
// names no request in the set is ignored.
func TopologicalSort(requests []*Request) ([]*Request, error) {
	byID := make(map[string]int, len(requests))
	for i, r := range requests {
		if r.ID == "" {
			continue
		}
		if _, exists := byID[r.ID]; !exists {
			byID[r.ID] = i
		}
	}

	dependency := func(i int) (int, bool) {
		dep := requests[i].DependsOn
		if dep == "" {
			return 0, false
		}
		j, ok := byID[dep]
		return j, ok
	}

	state := make([]visitState, len(requests))
	sorted := make([]*Request, 0, len(requests))

	for root := range requests {
		if state[root] != unvisited {
			continue
		}

		stack := []int{root}
		for len(stack) > 0 {
			top := stack[len(stack)-1]

			switch state[top] {
			case unvisited:
				state[top] = inProgress
				if dep, ok := dependency(top); ok {
					switch state[dep] {
					case inProgress:
						return nil, newCycleError(requests, stack, dep)
					case unvisited:
						stack = append(stack, dep)
						continue
					}
				}
				state[top] = done
				sorted = append(sorted, requests[top])
				stack = stack[:len(stack)-1]

			case inProgress:
				state[top] = done
				sorted = append(sorted, requests[top])
				stack = stack[:len(stack)-1]

			default:
				stack = stack[:len(stack)-1]
			}
		}
	}

	return sorted, nil
}

// newCycleError reports the cycle as a dependsOn path that closes on the
// request it started from
func newCycleError(requests []*Request, stack []int, dep int) *CircularDependencyError {
	start := 0
	for i, idx := range stack {
		if idx == dep {
			start = i
			break
		}
	}

	members := stack[start:]
	cycle := make([]string, 0, len(members)+1)
	for _, idx := range members {
		cycle = append(cycle, requests[idx].label())
	}
	cycle = append(cycle, requests[members[0]].label())

	return &CircularDependencyError{Cycle: cycle}
}
