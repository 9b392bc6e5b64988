package callgraph

// TransitiveCallees returns every function reachable from id through callee
// edges within maxDepth hops. The origin is excluded from the result. Cycles
// terminate through the visited set alone, so recursive and mutually
// recursive chains are safe regardless of maxDepth.
func (g *CallGraph) TransitiveCallees(id FunctionID, maxDepth int) map[FunctionID]bool {
	return g.traverse(id, maxDepth, g.Callees)
}

// TransitiveCallers returns every function that can reach id through caller
// edges within maxDepth hops, excluding id itself.
func (g *CallGraph) TransitiveCallers(id FunctionID, maxDepth int) map[FunctionID]bool {
	return g.traverse(id, maxDepth, g.Callers)
}

type frontierEntry struct {
	id    FunctionID
	depth int
}

// traverse is a bounded breadth-first walk over an adjacency accessor.
// An explicit frontier queue is used instead of recursion so deep or cyclic
// graphs cannot overflow the stack.
func (g *CallGraph) traverse(origin FunctionID, maxDepth int, next func(FunctionID) []FunctionID) map[FunctionID]bool {
	visited := make(map[FunctionID]bool)
	queue := []frontierEntry{{id: origin, depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current.id] {
			continue
		}
		visited[current.id] = true

		if current.depth >= maxDepth {
			continue
		}
		for _, neighbor := range next(current.id) {
			if !visited[neighbor] {
				queue = append(queue, frontierEntry{id: neighbor, depth: current.depth + 1})
			}
		}
	}

	delete(visited, origin)
	return visited
}

// EntryPoints returns every function flagged as an entry point, sorted.
func (g *CallGraph) EntryPoints() []FunctionID {
	var out []FunctionID
	for id, node := range g.nodes {
		if node.IsEntryPoint {
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

// TestFunctions returns every function defined in test code, sorted.
func (g *CallGraph) TestFunctions() []FunctionID {
	var out []FunctionID
	for id, node := range g.nodes {
		if node.IsTest {
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

// AllFunctions returns every stored identity, sorted.
func (g *CallGraph) AllFunctions() []FunctionID {
	out := make([]FunctionID, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}
