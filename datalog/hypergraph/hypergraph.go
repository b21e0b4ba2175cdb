// Package hypergraph builds the hypergraph of a conjunctive query and reduces
// it with the GYO (Graham-Yu-Özsoyoğlu) algorithm. A successful reduction
// proves the query acyclic and yields a join forest for evaluation.
package hypergraph

import (
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// HyperEdge is the variable set of one or more body atoms. Atoms whose
// variable sets are identical share a single edge.
type HyperEdge struct {
	// Vertices in first-occurrence order of the first atom
	Vertices []string
	Atoms    []*query.Atom

	ids []uint
	set *bitset.BitSet
	key string
}

// Key returns the canonical serialization of the vertex set
func (e *HyperEdge) Key() string { return e.key }

// Has reports whether the edge contains the vertex with the given id
func (e *HyperEdge) Has(id uint) bool { return e.set.Test(id) }

// String returns the canonical key
func (e *HyperEdge) String() string { return e.key }

// SetKey returns the canonical key of a variable set: the sorted names,
// comma separated, in braces. Order and duplicates in vars do not matter.
func SetKey(vars []string) string {
	sorted := make([]string, 0, len(vars))
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if !seen[v] {
			seen[v] = true
			sorted = append(sorted, v)
		}
	}
	sort.Strings(sorted)
	return "{" + strings.Join(sorted, ",") + "}"
}

// Hypergraph holds the deduplicated hyperedges of one query body. Edges are
// only removed, during GYO.
type Hypergraph struct {
	edges []*HyperEdge
	ids   map[string]uint
}

// New builds the hypergraph of q's body. Ground atoms (no variables) are not
// part of the hypergraph.
func New(q *query.Query) *Hypergraph {
	h := &Hypergraph{ids: make(map[string]uint)}

	for _, atom := range q.Body {
		vars := atom.Variables()
		if len(vars) == 0 {
			continue
		}
		for _, v := range vars {
			if _, ok := h.ids[v]; !ok {
				h.ids[v] = uint(len(h.ids))
			}
		}

		key := SetKey(vars)
		if e := h.Edge(key); e != nil {
			e.Atoms = append(e.Atoms, atom)
			continue
		}

		e := &HyperEdge{
			Vertices: append([]string(nil), vars...),
			Atoms:    []*query.Atom{atom},
			ids:      make([]uint, len(vars)),
			set:      bitset.New(uint(len(h.ids))),
			key:      key,
		}
		for i, v := range vars {
			e.ids[i] = h.ids[v]
			e.set.Set(e.ids[i])
		}
		h.edges = append(h.edges, e)
	}

	return h
}

// Len returns the number of remaining edges
func (h *Hypergraph) Len() int { return len(h.edges) }

// Edges returns a snapshot of the remaining edges in insertion order
func (h *Hypergraph) Edges() []*HyperEdge {
	return append([]*HyperEdge(nil), h.edges...)
}

// Edge returns the edge with the given canonical key, or nil
func (h *Hypergraph) Edge(key string) *HyperEdge {
	for _, e := range h.edges {
		if e.key == key {
			return e
		}
	}
	return nil
}

// RemoveEdge deletes the edge with exactly the given vertex set key
func (h *Hypergraph) RemoveEdge(key string) bool {
	for i, e := range h.edges {
		if e.key == key {
			h.edges = append(h.edges[:i], h.edges[i+1:]...)
			return true
		}
	}
	return false
}

// others returns every remaining edge except e
func (h *Hypergraph) others(e *HyperEdge) []*HyperEdge {
	out := make([]*HyperEdge, 0, len(h.edges))
	for _, o := range h.edges {
		if o != e {
			out = append(out, o)
		}
	}
	return out
}
