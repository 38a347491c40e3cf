package graph

import "sort"

// TraceWrite is one variable reachable from an entry point. Depth is the
// BFS level of the first write site, or -1 when the write lies beyond
// the depth bound and is known only from the closure.
type TraceWrite struct {
	Key         string
	Depth       int
	Direct      bool
	Truncated   bool
	ProjectSite bool
}

// Trace is the write-reachability result for one entry point.
type Trace struct {
	Entry     int
	Truncated bool
	Writes    []TraceWrite
}

// Tracer answers bounded write-reachability queries over one graph. The
// full, unbounded write closure is precomputed per strongly connected
// component so depth-truncated traversals can still name every variable
// the entry point could write.
type Tracer struct {
	g           *Graph
	componentOf []int
	closure     []map[string]bool
}

func NewTracer(g *Graph) *Tracer {
	componentOf, components := stronglyConnectedComponents(g)
	compEdges := componentEdges(g, componentOf, len(components))

	closure := make([]map[string]bool, len(components))
	var compute func(c int) map[string]bool
	compute = func(c int) map[string]bool {
		if closure[c] != nil {
			return closure[c]
		}
		acc := make(map[string]bool)
		closure[c] = acc
		for _, v := range components[c] {
			for _, w := range g.Nodes[v].Writes {
				acc[w.Key] = acc[w.Key] || !w.SiteDependency
			}
		}
		for _, next := range compEdges[c] {
			for key, project := range compute(next) {
				acc[key] = acc[key] || project
			}
		}
		return acc
	}
	for c := range components {
		compute(c)
	}

	return &Tracer{g: g, componentOf: componentOf, closure: closure}
}

// Trace walks breadth-first from the entry node, visiting every node at
// depth at most maxDepth exactly once. Writes found on the walk carry
// their discovery depth; writes that exist only beyond the bound are
// reported as truncated so they are never silently omitted.
func (t *Tracer) Trace(entry, maxDepth int) Trace {
	if maxDepth < 1 {
		maxDepth = 1
	}

	type item struct {
		id    int
		depth int
	}
	visited := map[int]bool{entry: true}
	queue := []item{{entry, 0}}
	writes := make(map[string]*TraceWrite)
	var frontier []int

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		n := t.g.Nodes[it.id]

		direct := it.depth == 0 || (it.depth == 1 && n.Kind == KindModifier)
		for _, w := range n.Writes {
			tw, ok := writes[w.Key]
			if !ok {
				writes[w.Key] = &TraceWrite{Key: w.Key, Depth: it.depth, Direct: direct}
				continue
			}
			if it.depth < tw.Depth {
				tw.Depth = it.depth
			}
			if direct {
				tw.Direct = true
			}
		}

		if it.depth == maxDepth {
			frontier = append(frontier, it.id)
			continue
		}
		for _, next := range n.Out {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, item{next, it.depth + 1})
		}
	}

	truncated := false
	for _, id := range frontier {
		for _, next := range t.g.Nodes[id].Out {
			if !visited[next] {
				truncated = true
				break
			}
		}
		if truncated {
			break
		}
	}

	full := t.closure[t.componentOf[entry]]
	for key, tw := range writes {
		tw.ProjectSite = full[key]
	}
	if truncated {
		for key, project := range full {
			if _, have := writes[key]; have {
				continue
			}
			writes[key] = &TraceWrite{Key: key, Depth: -1, Truncated: true, ProjectSite: project}
		}
	}

	out := make([]TraceWrite, 0, len(writes))
	for _, tw := range writes {
		out = append(out, *tw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return Trace{Entry: entry, Truncated: truncated, Writes: out}
}

// stronglyConnectedComponents runs Tarjan's algorithm over the node
// out-edges. Components come back in completion order with their member
// ids sorted, which keeps downstream iteration deterministic.
func stronglyConnectedComponents(g *Graph) ([]int, [][]int) {
	n := len(g.Nodes)
	index := make([]int, n)
	lowLink := make([]int, n)
	onStack := make([]bool, n)
	componentOf := make([]int, n)
	for i := range componentOf {
		componentOf[i] = -1
	}

	var stack []int
	var components [][]int
	counter := 0

	var strongConnect func(v int)
	strongConnect = func(v int) {
		counter++
		index[v] = counter
		lowLink[v] = counter
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Nodes[v].Out {
			if index[w] == 0 {
				strongConnect(w)
				if lowLink[w] < lowLink[v] {
					lowLink[v] = lowLink[w]
				}
			} else if onStack[w] && index[w] < lowLink[v] {
				lowLink[v] = index[w]
			}
		}

		if lowLink[v] == index[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			sort.Ints(comp)
			id := len(components)
			for _, w := range comp {
				componentOf[w] = id
			}
			components = append(components, comp)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == 0 {
			strongConnect(v)
		}
	}
	return componentOf, components
}

// componentEdges condenses node edges into the component DAG.
func componentEdges(g *Graph, componentOf []int, count int) [][]int {
	seen := make([]map[int]bool, count)
	edges := make([][]int, count)
	for _, n := range g.Nodes {
		from := componentOf[n.ID]
		for _, next := range n.Out {
			to := componentOf[next]
			if to == from {
				continue
			}
			if seen[from] == nil {
				seen[from] = make(map[int]bool)
			}
			if seen[from][to] {
				continue
			}
			seen[from][to] = true
			edges[from] = append(edges[from], to)
		}
	}
	for _, e := range edges {
		sort.Ints(e)
	}
	return edges
}
