package graph

// CallNode is one rendered node of an entry point's call tree. Exactly
// one of Cycle, Truncated and Shared may be set on a leaf: a repeated
// unit on the current path, a node cut by the depth bound, and a subtree
// already expanded elsewhere in the same tree must stay distinguishable.
type CallNode struct {
	Label     string      `json:"label"`
	Contract  string      `json:"contract,omitempty"`
	Kind      Kind        `json:"kind"`
	Tooltip   string      `json:"tooltip"`
	Location  *SourceRef  `json:"location,omitempty"`
	Cycle     bool        `json:"cycle"`
	Truncated bool        `json:"truncated"`
	Shared    bool        `json:"shared"`
	Calls     []*CallNode `json:"calls"`
}

// Serializer renders bounded call trees from one graph. Each node
// expands at most once per tree, so the output stays within
// (graph size × max depth) regardless of sharing.
type Serializer struct {
	g           *Graph
	maxDepth    int
	expandDeps  bool
	excludeDeps bool
}

func NewSerializer(g *Graph, maxDepth int, excludeDeps, expandDeps bool) *Serializer {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &Serializer{g: g, maxDepth: maxDepth, expandDeps: expandDeps, excludeDeps: excludeDeps}
}

// Serialize returns the direct callees of the entry node, recursively
// expanded. The entry itself is the caller's row, not part of the tree.
func (s *Serializer) Serialize(entry int) []*CallNode {
	onPath := map[int]bool{entry: true}
	expanded := map[int]bool{entry: true}
	return s.children(s.g.Nodes[entry], 0, onPath, expanded)
}

func (s *Serializer) children(parent *Node, depth int, onPath, expanded map[int]bool) []*CallNode {
	out := make([]*CallNode, 0, len(parent.Out))
	for _, id := range parent.Out {
		target := s.g.Nodes[id]
		node := s.newCallNode(target)

		switch {
		case onPath[id]:
			node.Cycle = true
		case target.Canonical == "":
			// Language-level leaf, nothing to expand.
		case !s.expandable(target):
			// Dependency boundary: shown, not expanded.
		case expanded[id]:
			node.Shared = true
		case depth+1 >= s.maxDepth:
			if len(target.Out) > 0 {
				node.Truncated = true
			}
		default:
			expanded[id] = true
			onPath[id] = true
			node.Calls = s.children(target, depth+1, onPath, expanded)
			delete(onPath, id)
		}
		out = append(out, node)
	}
	return out
}

func (s *Serializer) expandable(n *Node) bool {
	if s.expandDeps {
		return true
	}
	return !(s.excludeDeps && n.Dependency)
}

func (s *Serializer) newCallNode(n *Node) *CallNode {
	tooltip := n.Canonical
	if tooltip == "" {
		tooltip = n.Label
	}
	return &CallNode{
		Label:    n.Label,
		Contract: n.Contract,
		Kind:     n.Kind,
		Tooltip:  tooltip,
		Location: NewSourceRef(n.Location),
		Calls:    []*CallNode{},
	}
}
