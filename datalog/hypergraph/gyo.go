package hypergraph

import (
	"errors"
	"fmt"

	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// ErrCyclicQuery is returned when ear reduction stalls with edges left
var ErrCyclicQuery = errors.New("query is cyclic")

// GYO builds the hypergraph of q and reduces it
func GYO(q *query.Query) (*JoinTree, error) {
	return Reduce(New(q))
}

// Reduce runs GYO ear reduction on h, which is emptied in the process.
// Every ear becomes a join tree node attached below the node of its
// witness. When a round removes no ear the query is cyclic and no tree is
// returned.
func Reduce(h *Hypergraph) (*JoinTree, error) {
	tree := NewJoinTree()

	for h.Len() > 0 {
		removed := 0
		for _, e := range h.Edges() {
			ok, witness := IsEar(e, h.others(e))
			if !ok {
				continue
			}

			ear := tree.nodeFor(e)
			if witness != nil {
				tree.nodeFor(witness).AddChild(ear)
			}
			h.RemoveEdge(e.Key())
			removed++
		}

		if removed == 0 {
			return nil, fmt.Errorf("%w: no ear among %d remaining hyperedges", ErrCyclicQuery, h.Len())
		}
	}

	tree.SetRoots()
	return tree, nil
}
