package callgraph

import "sort"

// CallType classifies how a call site reaches its target.
type CallType string

const (
	CallDirect   CallType = "direct"
	CallTrait    CallType = "trait"
	CallDynamic  CallType = "dynamic"
	CallAsync    CallType = "async"
	CallCallback CallType = "callback"
)

// Call is a single caller → callee edge.
type Call struct {
	Caller FunctionID `json:"caller"`
	Callee FunctionID `json:"callee"`
	Type   CallType   `json:"call_type"`
}

// FunctionNode holds per-function metadata. Nodes are created on first
// insertion and never deleted during a build; the only in-place mutation
// after insertion is flipping IsEntryPoint for trait-dispatch targets.
type FunctionNode struct {
	ID           FunctionID
	ModulePath   string
	IsEntryPoint bool
	IsTest       bool
	Complexity   uint32
	Lines        int
}

// CallGraph is the whole-project map of which function calls which.
//
// It owns four derived indices alongside the node map and edge list:
// callee-by-caller, caller-by-callee, (normalized name, file) → candidates,
// and normalized name → candidates. The indices are updated transactionally
// on every mutation, never lazily, so reads are always consistent with the
// current node set.
//
// A CallGraph is not safe for concurrent mutation. Build fragments
// single-threaded (one per file) and fold them with Merge; once construction
// finishes, all query methods are read-only and safe for concurrent use.
type CallGraph struct {
	nodes       map[FunctionID]*FunctionNode
	edges       []Call
	edgeSeen    map[Call]bool
	calleeIndex map[FunctionID]map[FunctionID]struct{}
	callerIndex map[FunctionID]map[FunctionID]struct{}
	fuzzyIndex  map[fuzzyKey][]FunctionID
	nameIndex   map[string][]FunctionID
	fileIndex   map[string][]FunctionID
}

// New creates an empty call graph.
func New() *CallGraph {
	return &CallGraph{
		nodes:       make(map[FunctionID]*FunctionNode),
		edgeSeen:    make(map[Call]bool),
		calleeIndex: make(map[FunctionID]map[FunctionID]struct{}),
		callerIndex: make(map[FunctionID]map[FunctionID]struct{}),
		fuzzyIndex:  make(map[fuzzyKey][]FunctionID),
		nameIndex:   make(map[string][]FunctionID),
		fileIndex:   make(map[string][]FunctionID),
	}
}

// AddFunction upserts a node. Metadata is overwritten on re-insertion (last
// write wins) except the module path, which AddFunction leaves untouched;
// use AddFunctionInModule to set it. This is the only sanctioned insertion
// path: it keeps the fuzzy and name indices in step with the node map.
func (g *CallGraph) AddFunction(id FunctionID, isEntryPoint, isTest bool, complexity uint32, lines int) {
	node, exists := g.nodes[id]
	if exists {
		node.IsEntryPoint = isEntryPoint
		node.IsTest = isTest
		node.Complexity = complexity
		node.Lines = lines
		return
	}
	g.nodes[id] = &FunctionNode{
		ID:           id,
		IsEntryPoint: isEntryPoint,
		IsTest:       isTest,
		Complexity:   complexity,
		Lines:        lines,
	}
	key := fuzzyKeyFor(id)
	g.fuzzyIndex[key] = append(g.fuzzyIndex[key], id)
	g.nameIndex[key.name] = append(g.nameIndex[key.name], id)
	g.fileIndex[id.File] = append(g.fileIndex[id.File], id)
}

// AddFunctionInModule upserts a node and records the module path used for
// name-only disambiguation.
func (g *CallGraph) AddFunctionInModule(id FunctionID, modulePath string, isEntryPoint, isTest bool, complexity uint32, lines int) {
	g.AddFunction(id, isEntryPoint, isTest, complexity, lines)
	g.nodes[id].ModulePath = modulePath
}

// ensure inserts a zero-metric node if the identity has not been seen.
// Edge endpoints must always exist in the node map.
func (g *CallGraph) ensure(id FunctionID) {
	if _, ok := g.nodes[id]; !ok {
		g.AddFunction(id, false, false, 0, 0)
	}
}

// AddCall appends an edge and updates both adjacency indices. Endpoints not
// yet present are auto-inserted with zeroed metrics. The edge list tolerates
// duplicates from repeated extraction of the same call site; the adjacency
// indices deduplicate.
func (g *CallGraph) AddCall(call Call) {
	g.ensure(call.Caller)
	g.ensure(call.Callee)

	g.edges = append(g.edges, call)
	g.edgeSeen[call] = true

	if g.calleeIndex[call.Caller] == nil {
		g.calleeIndex[call.Caller] = make(map[FunctionID]struct{})
	}
	g.calleeIndex[call.Caller][call.Callee] = struct{}{}

	if g.callerIndex[call.Callee] == nil {
		g.callerIndex[call.Callee] = make(map[FunctionID]struct{})
	}
	g.callerIndex[call.Callee][call.Caller] = struct{}{}
}

// AddCallParts is a convenience wrapper building the edge from its parts.
func (g *CallGraph) AddCallParts(caller, callee FunctionID, callType CallType) {
	g.AddCall(Call{Caller: caller, Callee: callee, Type: callType})
}

// MarkAsTraitDispatch pins a function as reachable. Calls through trait or
// interface dispatch cannot be statically resolved to one callee, so the
// possible targets are flagged as entry points instead, which suppresses
// false dead-code positives. Unknown identities are inserted with zeroed
// metrics first.
func (g *CallGraph) MarkAsTraitDispatch(id FunctionID) {
	g.ensure(id)
	g.nodes[id].IsEntryPoint = true
}

// Merge folds another graph into this one. Nodes are re-added through
// AddFunction so index consistency is preserved; edges already present are
// skipped, making Merge idempotent under repeated application and
// order-insensitive with respect to the final node and edge sets.
func (g *CallGraph) Merge(other *CallGraph) {
	if other == nil {
		return
	}
	for id, node := range other.nodes {
		g.AddFunction(id, node.IsEntryPoint, node.IsTest, node.Complexity, node.Lines)
		if node.ModulePath != "" {
			g.nodes[id].ModulePath = node.ModulePath
		}
	}
	for _, call := range other.edges {
		if g.edgeSeen[call] {
			continue
		}
		g.AddCall(call)
	}
}

// Contains reports whether the identity has a node.
func (g *CallGraph) Contains(id FunctionID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the stored node for an identity.
func (g *CallGraph) Node(id FunctionID) (FunctionNode, bool) {
	node, ok := g.nodes[id]
	if !ok {
		return FunctionNode{}, false
	}
	return *node, true
}

// Callees returns the distinct functions called by id, sorted for
// deterministic output.
func (g *CallGraph) Callees(id FunctionID) []FunctionID {
	return sortedSet(g.calleeIndex[id])
}

// Callers returns the distinct functions calling id, sorted for
// deterministic output.
func (g *CallGraph) Callers(id FunctionID) []FunctionID {
	return sortedSet(g.callerIndex[id])
}

// DependencyCount is the number of distinct callers of id.
func (g *CallGraph) DependencyCount(id FunctionID) int {
	return len(g.callerIndex[id])
}

// IsEntryPoint reports whether id is flagged as reachable independent of
// static call edges. Unknown identities are not entry points.
func (g *CallGraph) IsEntryPoint(id FunctionID) bool {
	node, ok := g.nodes[id]
	return ok && node.IsEntryPoint
}

// IsTestFunction reports whether id was defined in test code.
func (g *CallGraph) IsTestFunction(id FunctionID) bool {
	node, ok := g.nodes[id]
	return ok && node.IsTest
}

// IsTestHelper reports whether id has callers and every one of them is a
// test function. Such helpers are test infrastructure, not production debt.
func (g *CallGraph) IsTestHelper(id FunctionID) bool {
	callers := g.callerIndex[id]
	if len(callers) == 0 {
		return false
	}
	for caller := range callers {
		if !g.IsTestFunction(caller) {
			return false
		}
	}
	return true
}

// Calls returns the raw edges originating at caller, in insertion order.
func (g *CallGraph) Calls(caller FunctionID) []Call {
	var out []Call
	for _, call := range g.edges {
		if call.Caller == caller {
			out = append(out, call)
		}
	}
	return out
}

// NodeCount returns the number of stored functions.
func (g *CallGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the length of the edge list, duplicates included.
func (g *CallGraph) EdgeCount() int { return len(g.edges) }

// IsEmpty reports whether the graph has no nodes.
func (g *CallGraph) IsEmpty() bool { return len(g.nodes) == 0 }

func sortedSet(set map[FunctionID]struct{}) []FunctionID {
	if len(set) == 0 {
		return nil
	}
	out := make([]FunctionID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

func sortIDs(ids []FunctionID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Name < b.Name
	})
}
