package resource

import (
	"sort"

	"github.com/pkg/errors"
)

type nodeSet map[string]struct{}

// A Graph tracks component instances by name and which instances each one depends on.
// It is not safe for concurrent use.
type Graph struct {
	nodes nodeSet
	// deps[n] are the instances n depends on; dependents[n] are the instances depending on n.
	deps       map[string]nodeSet
	dependents map[string]nodeSet
}

// NewGraph creates a new, empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      nodeSet{},
		deps:       map[string]nodeSet{},
		dependents: map[string]nodeSet{},
	}
}

// BuildGraph adds every config and its DependsOn edges. Dependencies on names that are not
// configured and cycles are errors.
func BuildGraph(confs []Config) (*Graph, error) {
	g := NewGraph()
	for _, conf := range confs {
		g.AddNode(conf.Name)
	}
	for _, conf := range confs {
		for _, dep := range conf.DependsOn {
			if !g.Has(dep) {
				return nil, &DependencyNotReadyError{
					Name:   dep,
					Reason: errors.Errorf("required by %q but not configured", conf.Name),
				}
			}
			if err := g.AddDependency(conf.Name, dep); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func addToSet(m map[string]nodeSet, key, node string) {
	nodes, ok := m[key]
	if !ok {
		nodes = nodeSet{}
		m[key] = nodes
	}
	nodes[node] = struct{}{}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(name string) {
	g.nodes[name] = struct{}{}
}

// Has reports whether name is a node.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// AddDependency records that child depends on parent, adding either node if missing.
func (g *Graph) AddDependency(child, parent string) error {
	if child == parent {
		return errors.Errorf("%q cannot depend on itself", child)
	}
	if g.reaches(parent, child) {
		return errors.Errorf("circular dependency - %q already depends on %q", parent, child)
	}
	g.AddNode(child)
	g.AddNode(parent)
	addToSet(g.deps, child, parent)
	addToSet(g.dependents, parent, child)
	return nil
}

// reaches reports whether from transitively depends on to.
func (g *Graph) reaches(from, to string) bool {
	visited := nodeSet{}
	next := []string{from}
	for len(next) > 0 {
		n := next[len(next)-1]
		next = next[:len(next)-1]
		for d := range g.deps[n] {
			if d == to {
				return true
			}
			if _, ok := visited[d]; !ok {
				visited[d] = struct{}{}
				next = append(next, d)
			}
		}
	}
	return false
}

// Dependents returns every node that transitively depends on name, sorted.
func (g *Graph) Dependents(name string) []string {
	out := nodeSet{}
	next := []string{name}
	for len(next) > 0 {
		var found []string
		for _, n := range next {
			for d := range g.dependents[n] {
				if _, ok := out[d]; !ok {
					out[d] = struct{}{}
					found = append(found, d)
				}
			}
		}
		next = found
	}
	return sortedNames(out)
}

// TopologicalSort returns the node names with every dependency before its dependents. Nodes
// that become ready together are sorted by name so the order is stable.
func (g *Graph) TopologicalSort() []string {
	remaining := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		remaining[n] = len(g.deps[n])
	}
	ordered := make([]string, 0, len(g.nodes))
	for len(remaining) > 0 {
		ready := nodeSet{}
		for n, count := range remaining {
			if count == 0 {
				ready[n] = struct{}{}
			}
		}
		if len(ready) == 0 {
			// unreachable while AddDependency rejects cycles
			break
		}
		for _, n := range sortedNames(ready) {
			ordered = append(ordered, n)
			delete(remaining, n)
			for d := range g.dependents[n] {
				remaining[d]--
			}
		}
	}
	return ordered
}

func sortedNames(s nodeSet) []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
