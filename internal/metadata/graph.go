package metadata

import (
	"sort"
	"sync"
)

// Graph records which body types reference which. Nodes are body names and
// an edge from A to B means a field of A refers to B. Edges are held by
// name, so cyclic schemas never produce pointer cycles.
type Graph struct {
	mu    sync.Mutex
	nodes map[string]struct{}
	edges map[string]map[string]struct{}

	// component caches the strongly connected component of every node.
	component map[string]int
}

func NewGraph() *Graph {
	return &Graph{
		nodes: map[string]struct{}{},
		edges: map[string]map[string]struct{}{},
	}
}

func (g *Graph) AddNode(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[name] = struct{}{}
	g.component = nil
}

// AddEdge records that from depends on to.
func (g *Graph) AddEdge(from, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}
	if g.edges[from] == nil {
		g.edges[from] = map[string]struct{}{}
	}
	g.edges[from][to] = struct{}{}
	g.component = nil
}

// Nodes returns every node in name order.
func (g *Graph) Nodes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sortedSet(g.nodes)
}

// Deps returns the direct dependencies of name in name order.
func (g *Graph) Deps(name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sortedSet(g.edges[name])
}

// Closure returns names and everything they depend on, transitively, in
// name order.
func (g *Graph) Closure(names ...string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	seen := map[string]struct{}{}
	stack := append([]string(nil), names...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		for dep := range g.edges[n] {
			stack = append(stack, dep)
		}
	}
	return sortedSet(seen)
}

// Components returns the strongly connected components reachable from
// names, dependencies first. Members of a cycle share a component and are
// sorted by name.
func (g *Graph) Components(names ...string) [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	starts := append([]string(nil), names...)
	sort.Strings(starts)
	return g.tarjan(starts)
}

// Order flattens Components into an emission order.
func (g *Graph) Order(names ...string) []string {
	var out []string
	for _, c := range g.Components(names...) {
		out = append(out, c...)
	}
	return out
}

// Cyclic reports whether a and b lie on a common cycle, including a type
// that references itself. Emitters use it to choose pointer fields.
func (g *Graph) Cyclic(a, b string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.component == nil {
		g.component = map[string]int{}
		for i, comp := range g.tarjan(sortedSet(g.nodes)) {
			for _, n := range comp {
				g.component[n] = i
			}
		}
	}
	ca, okA := g.component[a]
	cb, okB := g.component[b]
	if !okA || !okB || ca != cb {
		return false
	}
	if a != b {
		return true
	}
	_, self := g.edges[a][a]
	if self {
		return true
	}
	// a single node is cyclic only through another member.
	for n, c := range g.component {
		if c == ca && n != a {
			return true
		}
	}
	return false
}

type tarjanFrame struct {
	node string
	deps []string
	next int
}

// tarjan computes strongly connected components without recursion, so deep
// or cyclic schema graphs cannot exhaust the stack. Components come out in
// reverse topological order of the condensed graph, which is dependencies
// first. The caller holds g.mu.
func (g *Graph) tarjan(starts []string) [][]string {
	var (
		index   = map[string]int{}
		low     = map[string]int{}
		onStack = map[string]bool{}
		stack   []string
		comps   [][]string
		counter int
	)
	visit := func(n string) *tarjanFrame {
		index[n], low[n] = counter, counter
		counter++
		stack = append(stack, n)
		onStack[n] = true
		return &tarjanFrame{node: n, deps: sortedSet(g.edges[n])}
	}

	for _, s := range starts {
		if _, seen := index[s]; seen {
			continue
		}
		calls := []*tarjanFrame{visit(s)}
		for len(calls) > 0 {
			f := calls[len(calls)-1]
			if f.next < len(f.deps) {
				w := f.deps[f.next]
				f.next++
				if _, seen := index[w]; !seen {
					calls = append(calls, visit(w))
				} else if onStack[w] {
					low[f.node] = min(low[f.node], index[w])
				}
				continue
			}

			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].node
				low[parent] = min(low[parent], low[f.node])
			}
			if low[f.node] != index[f.node] {
				continue
			}
			var comp []string
			for {
				n := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[n] = false
				comp = append(comp, n)
				if n == f.node {
					break
				}
			}
			sort.Strings(comp)
			comps = append(comps, comp)
		}
	}
	return comps
}

func sortedSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
