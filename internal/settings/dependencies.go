package settings

import "fmt"

// checkDependencies reports a DependsOn that names an undefined key or
// closes a cycle. Resolve holds a key's lock while resolving its
// dependencies, so a cycle would deadlock instead of failing.
func checkDependencies(order []Key, entries map[Key]*entry) error {
	// Depth-first search with three sets of keys:
	// permanent: fully visited and not part of a cycle.
	// temporary: on the current recursion stack.
	// unvisited: all other keys.
	permanent := make(map[Key]bool)
	temporary := make(map[Key]bool)

	var visit func(key Key) error
	visit = func(key Key) error {
		if permanent[key] {
			return nil
		}
		if temporary[key] {
			return fmt.Errorf("dependency cycle involving %q", key)
		}
		temporary[key] = true

		for _, dep := range entries[key].def.DependsOn {
			if _, ok := entries[dep]; !ok {
				return fmt.Errorf("%q depends on undefined key %q", key, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		delete(temporary, key)
		permanent[key] = true
		return nil
	}

	for _, key := range order {
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}
