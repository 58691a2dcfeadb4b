package service

import (
	"fmt"
	"sort"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
)

// InitializationOrder computes the order in which registered services
// must be initialized: a topological order of the dependency graph in
// which every service appears strictly after all of its required
// dependencies. Priority acts only as a tie-break among otherwise
// unconstrained services: higher priority seeds the traversal earlier.
//
// A dependency cycle or an unregistered required dependency is a fatal
// configuration error. Unregistered optional dependencies are skipped.
func (r *Registry) InitializationOrder() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initializationOrderLocked()
}

func (r *Registry) initializationOrderLocked() ([]string, error) {
	// Seed the traversal by priority descending; equal priorities keep
	// registration order. Depth-first post-order emission preserves the
	// seed order for ties, so priority decides among independent nodes.
	seeds := make([]string, len(r.regOrder))
	copy(seeds, r.regOrder)
	sort.SliceStable(seeds, func(i, j int) bool {
		return r.registrations[seeds[i]].Priority > r.registrations[seeds[j]].Priority
	})

	var (
		order    = make([]string, 0, len(seeds))
		visiting = make(map[string]bool, len(seeds))
		visited  = make(map[string]bool, len(seeds))
	)

	var visit func(name string) error
	visit = func(name string) error {
		if visited[name] {
			return nil
		}
		if visiting[name] {
			return errors.WrapConfiguration(
				fmt.Errorf("%w: %s", errors.ErrCircularDependency, name),
				"Registry", "InitializationOrder", "cycle detection")
		}
		visiting[name] = true

		for _, dep := range r.registrations[name].Dependencies {
			if _, registered := r.registrations[dep.Name]; !registered {
				if dep.Required {
					return errors.WrapConfiguration(
						fmt.Errorf("%w: %s (required by %s)",
							errors.ErrMissingDependency, dep.Name, name),
						"Registry", "InitializationOrder", "dependency check")
				}
				continue
			}
			if visiting[dep.Name] {
				return errors.WrapConfiguration(
					fmt.Errorf("%w: %s -> %s", errors.ErrCircularDependency, name, dep.Name),
					"Registry", "InitializationOrder", "cycle detection")
			}
			if err := visit(dep.Name); err != nil {
				return err
			}
		}

		visiting[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, name := range seeds {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return order, nil
}
