package callgraph

// FindFunction maps an approximate reference to a canonical stored identity.
// Three tiers are tried in order, short-circuiting on the first hit:
//
//  1. Exact: the (file, name, line) triple is already a node.
//  2. Fuzzy: same file and same normalized name at a different line, which
//     covers a definition that moved a few lines after an edit. Competing
//     candidates are settled by minimum absolute line distance.
//  3. Name-only: any file, matching normalized name. Candidates sharing the
//     reference's module path win outright; otherwise line distance decides.
//
// The ordering is a precision/recall trade-off: exact is authoritative,
// fuzzy trusts same-file continuity, and name-only is the riskiest tier and
// therefore last. A false return is an expected outcome, not an error.
func (g *CallGraph) FindFunction(ref Ref) (FunctionID, bool) {
	if id := ref.ID(); g.Contains(id) {
		return id, true
	}

	if candidates := g.fuzzyIndex[fuzzyKey{name: NormalizeName(ref.Name), file: ref.File}]; len(candidates) > 0 {
		return closestByLine(candidates, ref.Line), true
	}

	candidates := g.nameIndex[NormalizeName(ref.Name)]
	if len(candidates) == 0 {
		return FunctionID{}, false
	}
	if ref.ModulePath != "" {
		var inModule []FunctionID
		for _, id := range candidates {
			if g.nodes[id].ModulePath == ref.ModulePath {
				inModule = append(inModule, id)
			}
		}
		if len(inModule) > 0 {
			return closestByLine(inModule, ref.Line), true
		}
	}
	return closestByLine(candidates, ref.Line), true
}

// FindFunctionAtLocation returns the function containing the given line:
// the definition in file whose start line is closest at or before line.
func (g *CallGraph) FindFunctionAtLocation(file string, line uint32) (FunctionID, bool) {
	var best FunctionID
	found := false
	for _, id := range g.fileIndex[file] {
		if id.Line > line {
			continue
		}
		if !found || id.Line > best.Line {
			best = id
			found = true
		}
	}
	return best, found
}

func closestByLine(candidates []FunctionID, line uint32) FunctionID {
	best := candidates[0]
	bestDist := lineDistance(best.Line, line)
	for _, id := range candidates[1:] {
		if d := lineDistance(id.Line, line); d < bestDist {
			best = id
			bestDist = d
		}
	}
	return best
}

func lineDistance(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
