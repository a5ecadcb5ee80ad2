package fragmentcolor

import "fmt"

// renderScope is one schedulable graph: the passes in insertion order, the
// explicit edge set (from-index before to-index), and the index of the
// presented pass, -1 when none.
type renderScope struct {
	passes  []*Pass
	edges   [][2]int
	present int
}

// Renderable is anything the renderer can schedule and execute: a *Pass,
// a PassList, or a *Frame.
type Renderable interface {
	renderScope() renderScope
}

// PassList renders an explicit ordered list of passes. Dependencies come
// from each pass's own Require edges; nothing is presented implicitly.
type PassList []*Pass

// renderScope collects the list as a graph scope.
func (l PassList) renderScope() renderScope {
	return renderScope{passes: []*Pass(l), present: -1}
}

var (
	_ Renderable = (*Pass)(nil)
	_ Renderable = (PassList)(nil)
	_ Renderable = (*Frame)(nil)
)

// schedule linearizes a scope into an execution order over pass indices.
// Every pass appears after all passes it requires. Kahn's algorithm with a
// deterministic tie-break: among ready passes, the lowest insertion index
// runs first, so equal-priority passes keep their insertion order and the
// output is reproducible across calls.
func schedule(scope renderScope) ([]int, error) {
	n := len(scope.passes)
	byIdentity := make(map[*Pass]int, n)
	for i, p := range scope.passes {
		if _, dup := byIdentity[p]; !dup {
			byIdentity[p] = i
		}
	}

	// Adjacency from explicit scope edges plus each pass's own Require
	// edges, restricted to passes in scope. Duplicate edges collapse.
	type edge struct{ from, to int }
	seen := make(map[edge]bool)
	succ := make([][]int, n)
	indegree := make([]int, n)

	addEdge := func(from, to int) {
		e := edge{from, to}
		if seen[e] {
			return
		}
		seen[e] = true
		succ[from] = append(succ[from], to)
		indegree[to]++
	}

	for _, e := range scope.edges {
		addEdge(e[0], e[1])
	}
	for i, p := range scope.passes {
		for _, req := range p.requires {
			if from, ok := byIdentity[req]; ok {
				addEdge(from, i)
			}
		}
	}

	order := make([]int, 0, n)
	placed := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !placed[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			if i := findCycleMember(n, succ, placed); i >= 0 {
				return nil, fmt.Errorf("%w: pass %q", ErrCyclicDependency, scope.passes[i].name)
			}
			return nil, ErrCyclicDependency
		}
		placed[next] = true
		order = append(order, next)
		for _, to := range succ[next] {
			indegree[to]--
		}
	}
	return order, nil
}

// findCycleMember walks the unplaced remainder of a stalled schedule and
// returns the index of a pass that sits on a cycle, not merely downstream
// of one. Returns -1 if no cycle is found.
func findCycleMember(n int, succ [][]int, placed []bool) int {
	const (
		white = iota
		gray
		black
	)
	state := make([]int, n)
	member := -1

	var visit func(int) bool
	visit = func(i int) bool {
		state[i] = gray
		for _, to := range succ[i] {
			if placed[to] {
				continue
			}
			switch state[to] {
			case gray:
				member = to
				return true
			case white:
				if visit(to) {
					return true
				}
			}
		}
		state[i] = black
		return false
	}

	for i := 0; i < n; i++ {
		if !placed[i] && state[i] == white && visit(i) {
			break
		}
	}
	return member
}

// dependents counts how many passes in scope require the pass at idx,
// through explicit scope edges or their own Require edges.
func dependents(scope renderScope, idx int) int {
	target := scope.passes[idx]
	count := 0
	for _, e := range scope.edges {
		if e[0] == idx {
			count++
		}
	}
	for i, p := range scope.passes {
		if i == idx {
			continue
		}
		for _, req := range p.requires {
			if req == target {
				count++
			}
		}
	}
	return count
}
