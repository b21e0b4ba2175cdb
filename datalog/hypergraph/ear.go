package hypergraph

// IsEar reports whether e is an ear with respect to the other remaining
// edges, and returns its witness (nil when every vertex of e is exclusive).
//
// e is an ear iff every vertex of e is either exclusive to e or contained in
// one witness edge w. The vertices are scanned in order. The first
// non-exclusive vertex picks a candidate witness; when a later vertex is not
// in that candidate, it is dropped from the pool and the scan resumes at the
// vertex where it was chosen. Each restart shrinks the pool, so the scan does
// at most |e| * |others| witness checks.
func IsEar(e *HyperEdge, others []*HyperEdge) (bool, *HyperEdge) {
	candidates := append([]*HyperEdge(nil), others...)

	var witness *HyperEdge
	chosenAt := 0

	for i := 0; i < len(e.ids); {
		id := e.ids[i]

		if exclusive(id, others) {
			i++
			continue
		}

		if witness != nil {
			if witness.Has(id) {
				i++
				continue
			}
			candidates = without(candidates, witness)
			witness = nil
			i = chosenAt
			continue
		}

		witness = firstContaining(id, candidates)
		if witness == nil {
			return false, nil
		}
		chosenAt = i
		i++
	}

	return true, witness
}

func exclusive(id uint, others []*HyperEdge) bool {
	for _, o := range others {
		if o.Has(id) {
			return false
		}
	}
	return true
}

func firstContaining(id uint, candidates []*HyperEdge) *HyperEdge {
	for _, c := range candidates {
		if c.Has(id) {
			return c
		}
	}
	return nil
}

func without(edges []*HyperEdge, drop *HyperEdge) []*HyperEdge {
	out := edges[:0]
	for _, e := range edges {
		if e != drop {
			out = append(out, e)
		}
	}
	return out
}
