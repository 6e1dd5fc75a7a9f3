package ontology

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/c360studio/ontopy/term"
	"github.com/c360studio/ontopy/vocabulary/owl"
)

// Hierarchy is the named rdfs:subClassOf graph of an import closure. Edges
// point from a class to its parent.
type Hierarchy struct {
	g    *simple.DirectedGraph
	ids  map[string]int64
	iris map[int64]string
}

// Hierarchy builds the class hierarchy over o and its imports. Declared
// classes without a named parent are roots.
func (o *Ontology) Hierarchy() *Hierarchy {
	h := &Hierarchy{
		g:    simple.NewDirectedGraph(),
		ids:  make(map[string]int64),
		iris: make(map[int64]string),
	}
	for _, onto := range o.ImportClosure() {
		for _, c := range onto.Classes() {
			h.node(c.IRI())
		}
		it := onto.graph.AllStatements()
		for it.Next() {
			s := it.Statement()
			if s.Predicate.Value != "<"+owl.SubClassOf+">" {
				continue
			}
			child, ok := term.IRIOf(s.Subject)
			if !ok {
				continue
			}
			parent, ok := term.IRIOf(s.Object)
			if !ok || parent == child {
				continue
			}
			h.g.SetEdge(h.g.NewEdge(h.node(child), h.node(parent)))
		}
	}
	return h
}

func (h *Hierarchy) node(iri string) graph.Node {
	if id, ok := h.ids[iri]; ok {
		return h.g.Node(id)
	}
	n := h.g.NewNode()
	h.g.AddNode(n)
	h.ids[iri] = n.ID()
	h.iris[n.ID()] = iri
	return n
}

// Len returns the number of classes in the hierarchy.
func (h *Hierarchy) Len() int { return len(h.ids) }

// Has reports whether iri is a class of the hierarchy.
func (h *Hierarchy) Has(iri string) bool {
	_, ok := h.ids[iri]
	return ok
}

// Sorted returns the classes parents first. It fails with
// ErrCyclicHierarchy when subclass declarations form a cycle.
func (h *Hierarchy) Sorted() ([]string, error) {
	nodes, err := topo.Sort(h.g)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			var names []string
			for _, comp := range cycles {
				for _, n := range comp {
					names = append(names, localName(h.iris[n.ID()]))
				}
			}
			sort.Strings(names)
			return nil, fmt.Errorf("%w: %s", ErrCyclicHierarchy, strings.Join(names, ", "))
		}
		return nil, err
	}
	// topo.Sort places children before the parents their edges lead to.
	iris := make([]string, len(nodes))
	for i, n := range nodes {
		iris[len(nodes)-1-i] = h.iris[n.ID()]
	}
	return iris, nil
}

// Roots returns the classes without a parent, sorted.
func (h *Hierarchy) Roots() []string {
	var roots []string
	for iri, id := range h.ids {
		if h.g.From(id).Len() == 0 {
			roots = append(roots, iri)
		}
	}
	sort.Strings(roots)
	return roots
}

// Parents returns the direct parents of iri, sorted.
func (h *Hierarchy) Parents(iri string) []string {
	id, ok := h.ids[iri]
	if !ok {
		return nil
	}
	return h.sorted(graph.NodesOf(h.g.From(id)))
}

// Children returns the direct children of iri, sorted.
func (h *Hierarchy) Children(iri string) []string {
	id, ok := h.ids[iri]
	if !ok {
		return nil
	}
	return h.sorted(graph.NodesOf(h.g.To(id)))
}

// Ancestors returns every ancestor of iri, breadth first.
func (h *Hierarchy) Ancestors(iri string) []string {
	return h.walk(h.g, iri)
}

// Descendants returns every descendant of iri, breadth first.
func (h *Hierarchy) Descendants(iri string) []string {
	return h.walk(reversed{h.g}, iri)
}

// Depth returns the number of subclass steps from iri to its most distant
// ancestor.
func (h *Hierarchy) Depth(iri string) int {
	depth := 0
	id, ok := h.ids[iri]
	if !ok {
		return 0
	}
	bf := traverse.BreadthFirst{}
	bf.Walk(h.g, h.g.Node(id), func(_ graph.Node, d int) bool {
		if d > depth {
			depth = d
		}
		return false
	})
	return depth
}

func (h *Hierarchy) walk(g traverse.Graph, iri string) []string {
	id, ok := h.ids[iri]
	if !ok {
		return nil
	}
	start := h.g.Node(id)
	var found []string
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != start.ID() {
				found = append(found, h.iris[n.ID()])
			}
		},
	}
	bf.Walk(g, start, nil)
	return found
}

func (h *Hierarchy) sorted(nodes []graph.Node) []string {
	iris := make([]string, len(nodes))
	for i, n := range nodes {
		iris[i] = h.iris[n.ID()]
	}
	sort.Strings(iris)
	return iris
}

// reversed flips edge direction so that a walk goes from parents to
// children.
type reversed struct {
	*simple.DirectedGraph
}

func (r reversed) From(id int64) graph.Nodes { return r.DirectedGraph.To(id) }

func (r reversed) Edge(uid, vid int64) graph.Edge { return r.DirectedGraph.Edge(vid, uid) }
