package graph

import (
	"sort"

	"github.com/xraph/anchor/internal/errors"
)

// Graph maintains directed dependency edges between entry keys and answers
// ordering and cycle queries. Edges point dependent -> dependency.
//
// Graph is not safe for concurrent use; the owning registry serializes
// access under its structural lock.
type Graph struct {
	nodes map[string]*node
	seq   int
}

type node struct {
	key        string
	priority   int
	seq        int
	deps       []string
	dependents []string
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// Add inserts a node for key with the given priority. Re-adding an existing
// key updates its priority but keeps its edges and registration order.
func (g *Graph) Add(key string, priority int) {
	if n, exists := g.nodes[key]; exists {
		n.priority = priority
		return
	}
	g.seq++
	g.nodes[key] = &node{
		key:      key,
		priority: priority,
		seq:      g.seq,
	}
}

// Remove deletes a node and detaches all edges touching it.
func (g *Graph) Remove(key string) {
	n, exists := g.nodes[key]
	if !exists {
		return
	}
	for _, dep := range n.deps {
		if dn, ok := g.nodes[dep]; ok {
			dn.dependents = remove(dn.dependents, key)
		}
	}
	for _, dependent := range n.dependents {
		if dn, ok := g.nodes[dependent]; ok {
			dn.deps = remove(dn.deps, key)
		}
	}
	delete(g.nodes, key)
}

// Has reports whether key is present in the graph.
func (g *Graph) Has(key string) bool {
	_, exists := g.nodes[key]
	return exists
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AddEdge records that dependent requires dependency. The edge is checked
// before it is committed: if it would complete a cycle the graph is left
// exactly as it was and a CIRCULAR_DEPENDENCY error is returned.
func (g *Graph) AddEdge(dependent, dependency string) error {
	if dependent == dependency {
		return errors.ErrCircularDependency([]string{dependent, dependency})
	}

	dn, exists := g.nodes[dependent]
	if !exists {
		return errors.ErrNotRegistered(dependent)
	}
	pn, exists := g.nodes[dependency]
	if !exists {
		return errors.ErrNotRegistered(dependency)
	}

	if contains(dn.deps, dependency) {
		return nil
	}

	// Adding dependent -> dependency creates a cycle exactly when dependent
	// is already reachable from dependency via existing dependency edges.
	if path := g.path(dependency, dependent); path != nil {
		return errors.ErrCircularDependency(append([]string{dependent}, path...))
	}

	dn.deps = append(dn.deps, dependency)
	pn.dependents = append(pn.dependents, dependent)
	return nil
}

// SetDependencies replaces the dependency edges of key with deps, applying
// the same atomic cycle check as AddEdge. On error no edge is changed.
func (g *Graph) SetDependencies(key string, deps []string) error {
	n, exists := g.nodes[key]
	if !exists {
		return errors.ErrNotRegistered(key)
	}

	old := n.deps
	g.detachDeps(n)

	for _, dep := range deps {
		if err := g.AddEdge(key, dep); err != nil {
			// Roll back to the previous edge set.
			g.detachDeps(n)
			for _, prev := range old {
				n.deps = append(n.deps, prev)
				if pn, ok := g.nodes[prev]; ok {
					pn.dependents = append(pn.dependents, key)
				}
			}
			return err
		}
	}
	return nil
}

// DependenciesOf returns the direct dependencies of key.
func (g *Graph) DependenciesOf(key string) []string {
	if n, exists := g.nodes[key]; exists {
		out := make([]string, len(n.deps))
		copy(out, n.deps)
		return out
	}
	return nil
}

// DependentsOf returns the direct dependents of key.
func (g *Graph) DependentsOf(key string) []string {
	if n, exists := g.nodes[key]; exists {
		out := make([]string, len(n.dependents))
		copy(out, n.dependents)
		return out
	}
	return nil
}

// TransitiveDependents returns every key that depends on key, directly or
// indirectly. The result does not include key itself.
func (g *Graph) TransitiveDependents(key string) []string {
	seen := map[string]bool{key: true}
	var out []string
	queue := append([]string(nil), g.DependentsOf(key)...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		out = append(out, current)
		queue = append(queue, g.DependentsOf(current)...)
	}
	return out
}

// TopologicalOrder returns an ordering over the requested keys and their
// transitive dependencies in which every dependency precedes its dependents.
// With no arguments the order covers the whole graph. Ties are broken by
// higher priority first, then by registration order, so the result is
// deterministic.
func (g *Graph) TopologicalOrder(keys ...string) []string {
	closure := g.closure(keys)

	// Kahn's algorithm over the closure, with a deterministically sorted
	// ready set.
	indegree := make(map[string]int, len(closure))
	for key := range closure {
		indegree[key] = 0
	}
	for key := range closure {
		for _, dep := range g.nodes[key].deps {
			if _, inClosure := closure[dep]; inClosure {
				indegree[key]++
			}
		}
	}

	var ready []string
	for key, degree := range indegree {
		if degree == 0 {
			ready = append(ready, key)
		}
	}
	g.sortReady(ready)

	result := make([]string, 0, len(closure))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		result = append(result, current)

		var unlocked []string
		for _, dependent := range g.nodes[current].dependents {
			if _, inClosure := closure[dependent]; !inClosure {
				continue
			}
			indegree[dependent]--
			if indegree[dependent] == 0 {
				unlocked = append(unlocked, dependent)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			g.sortReady(ready)
		}
	}
	return result
}

// DisposalOrder returns key plus its transitive dependents ordered so every
// dependent is disposed strictly before anything it depends on; key is last.
func (g *Graph) DisposalOrder(key string) []string {
	if !g.Has(key) {
		return nil
	}
	closure := append(g.TransitiveDependents(key), key)
	order := g.TopologicalOrder(closure...)

	// Restrict to the requested closure: TopologicalOrder pulls in
	// dependencies outside the cascade set, which must not be disposed.
	member := make(map[string]bool, len(closure))
	for _, k := range closure {
		member[k] = true
	}
	var forward []string
	for _, k := range order {
		if member[k] {
			forward = append(forward, k)
		}
	}

	// Reverse: dependencies-first becomes dependents-first.
	for i, j := 0, len(forward)-1; i < j; i, j = i+1, j-1 {
		forward[i], forward[j] = forward[j], forward[i]
	}
	return forward
}

// closure computes the requested keys plus their transitive dependencies.
func (g *Graph) closure(keys []string) map[string]bool {
	closure := make(map[string]bool)
	if len(keys) == 0 {
		for key := range g.nodes {
			closure[key] = true
		}
		return closure
	}

	var queue []string
	for _, key := range keys {
		if g.Has(key) {
			queue = append(queue, key)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if closure[current] {
			continue
		}
		closure[current] = true
		queue = append(queue, g.nodes[current].deps...)
	}
	return closure
}

// path returns a dependency path from 'from' to 'to' following dependency
// edges, or nil when 'to' is not reachable.
func (g *Graph) path(from, to string) []string {
	if from == to {
		return []string{from}
	}
	n, exists := g.nodes[from]
	if !exists {
		return nil
	}
	for _, dep := range n.deps {
		if sub := g.path(dep, to); sub != nil {
			return append([]string{from}, sub...)
		}
	}
	return nil
}

// sortReady orders the ready set by priority (higher first) then by
// registration sequence.
func (g *Graph) sortReady(ready []string) {
	sort.SliceStable(ready, func(i, j int) bool {
		a, b := g.nodes[ready[i]], g.nodes[ready[j]]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.seq < b.seq
	})
}

// detachDeps removes every outgoing dependency edge of n.
func (g *Graph) detachDeps(n *node) {
	for _, dep := range n.deps {
		if pn, ok := g.nodes[dep]; ok {
			pn.dependents = remove(pn.dependents, n.key)
		}
	}
	n.deps = nil
}

func contains(list []string, key string) bool {
	for _, item := range list {
		if item == key {
			return true
		}
	}
	return false
}

func remove(list []string, key string) []string {
	for i, item := range list {
		if item == key {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
