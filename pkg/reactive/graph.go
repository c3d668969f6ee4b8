package reactive

// Relate links parent as a republishing parent of the given holders.
// New and GetOrCreate call this for WithRelated; it is also usable directly
// to grow the graph after creation.
//
// The edge set must stay a DAG. Before any edge is added, the parent chain
// and related-children chain reachable from each candidate are walked; if
// the parent appears anywhere in that set the whole call is rejected with
// CircularDependencyError and no edges are linked.
func Relate(parent Holder, related ...Holder) error {
	p := parent.holder()
	cores := make([]*holderCore, 0, len(related))
	for _, h := range related {
		c := h.holder()
		if p.alreadyRelated(c) {
			continue
		}
		cores = append(cores, c)
	}
	if err := validateRelated(p, cores); err != nil {
		return err
	}
	for _, c := range cores {
		p.related = append(p.related, relatedEntry{typeName: c.identity.Type, core: c})
		c.parents = append(c.parents, p)
	}
	return nil
}

func (c *holderCore) alreadyRelated(child *holderCore) bool {
	for _, e := range c.related {
		if e.core == child {
			return true
		}
	}
	return false
}

// validateRelated rejects any candidate set that would make n an ancestor
// of itself. The returned chain runs from n back to the repeated node, e.g.
// [B, A, B] when B is being related to A while A already republishes to B.
func validateRelated(n *holderCore, candidates []*holderCore) error {
	for _, c := range candidates {
		if c == n {
			return &CircularDependencyError{Chain: []Identity{n.identity, n.identity}}
		}
		visited := make(map[*holderCore]bool)
		path := findPath(c, n, visited)
		if path == nil {
			continue
		}
		chain := make([]Identity, 0, len(path)+1)
		chain = append(chain, n.identity)
		for _, hop := range path {
			chain = append(chain, hop.identity)
		}
		return &CircularDependencyError{Chain: chain}
	}
	return nil
}

// findPath searches for target starting at start, following both parent
// edges and related-children edges. Returns the path start..target, or nil.
func findPath(start, target *holderCore, visited map[*holderCore]bool) []*holderCore {
	if start == target {
		return []*holderCore{start}
	}
	if visited[start] {
		return nil
	}
	visited[start] = true
	for _, p := range start.parents {
		if path := findPath(p, target, visited); path != nil {
			return append([]*holderCore{start}, path...)
		}
	}
	for _, e := range start.related {
		if path := findPath(e.core, target, visited); path != nil {
			return append([]*holderCore{start}, path...)
		}
	}
	return nil
}
