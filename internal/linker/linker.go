// Package linker resolves import and aliasing semantics across files,
// turning per-file call sites into edges whose callee is the canonical
// identity in the defining file. It handles direct imports, aliases,
// wildcard imports, module-qualified access, and transitive re-export
// chains.
package linker

import (
	"sort"
	"strings"

	"github.com/quarrydev/quarry/internal/extract"
	"github.com/quarrydev/quarry/pkg/callgraph"
)

// Linker accumulates file facts and resolves their call sites into a
// call graph. Not safe for concurrent use.
type Linker struct {
	graph *callgraph.CallGraph

	files       map[string]*extract.FileFacts
	fileOrder   []string
	moduleFiles map[string][]string

	// defsByFile maps file -> definition name -> identities at that name,
	// ordered by line. methodIndex maps a method's simple name to every
	// Type::method identity that defines it.
	defsByFile  map[string]map[string][]callgraph.FunctionID
	methodIndex map[string][]callgraph.FunctionID
}

// New creates a linker that adds edges to graph. Definitions from added
// files are registered as graph nodes immediately; edges appear on Link.
func New(graph *callgraph.CallGraph) *Linker {
	return &Linker{
		graph:       graph,
		files:       make(map[string]*extract.FileFacts),
		moduleFiles: make(map[string][]string),
		defsByFile:  make(map[string]map[string][]callgraph.FunctionID),
		methodIndex: make(map[string][]callgraph.FunctionID),
	}
}

// AddFile registers one file's facts. Definitions become graph nodes here
// so that Link can resolve against the complete node set.
func (l *Linker) AddFile(facts *extract.FileFacts) {
	if _, seen := l.files[facts.File]; seen {
		return
	}
	l.files[facts.File] = facts
	l.fileOrder = append(l.fileOrder, facts.File)
	l.moduleFiles[facts.ModulePath] = append(l.moduleFiles[facts.ModulePath], facts.File)

	byName := make(map[string][]callgraph.FunctionID)
	for _, def := range facts.Definitions {
		id := callgraph.FunctionID{File: facts.File, Name: def.Name, Line: def.Line}
		l.graph.AddFunctionInModule(id, facts.ModulePath, def.IsEntryPoint, def.IsTest, uint32(def.Complexity), def.Lines)
		byName[def.Name] = append(byName[def.Name], id)

		if i := strings.LastIndex(def.Name, extract.Qualifier); i >= 0 {
			simple := def.Name[i+len(extract.Qualifier):]
			l.methodIndex[simple] = append(l.methodIndex[simple], id)
		}
	}
	for _, ids := range byName {
		sort.Slice(ids, func(i, j int) bool { return ids[i].Line < ids[j].Line })
	}
	l.defsByFile[facts.File] = byName
}

// Link resolves every recorded call site and adds the resulting edges.
// Unresolvable call sites are dropped; methods reachable only through
// ambiguous dynamic dispatch are pinned as entry points instead.
func (l *Linker) Link() {
	for _, file := range l.fileOrder {
		facts := l.files[file]
		for _, call := range facts.Calls {
			l.linkCall(facts, call)
		}
	}
}

func (l *Linker) linkCall(facts *extract.FileFacts, call extract.CallSite) {
	caller := callgraph.FunctionID{File: facts.File, Name: call.Caller, Line: call.CallerLine}

	if call.Receiver != "" {
		l.linkReceiverCall(facts, caller, call)
		return
	}

	if strings.Contains(call.Callee, extract.Qualifier) {
		l.linkScopedCall(facts, caller, call)
		return
	}

	if callee, ok := l.resolvePlainName(facts, call); ok {
		l.graph.AddCall(callgraph.Call{Caller: caller, Callee: callee, Type: callgraph.CallDirect})
	}
}

// linkReceiverCall handles recv.method() style calls. A receiver that is a
// module binding resolves through the module; anything else is a method
// call resolved against qualified method definitions.
func (l *Linker) linkReceiverCall(facts *extract.FileFacts, caller callgraph.FunctionID, call extract.CallSite) {
	if module, ok := l.moduleBinding(facts, call.Receiver); ok {
		if callee, found := l.resolveSymbol(module, call.Callee, nil); found {
			l.graph.AddCall(callgraph.Call{Caller: caller, Callee: callee, Type: callgraph.CallDirect})
		}
		return
	}

	l.linkMethodCall(caller, call.Callee)
}

// linkMethodCall resolves a method by its simple name against every
// Type::method definition. A unique match becomes a dynamic edge; multiple
// candidates cannot be resolved statically, so each is marked as trait
// dispatch and no edge is added.
func (l *Linker) linkMethodCall(caller callgraph.FunctionID, method string) {
	candidates := l.methodIndex[callgraph.NormalizeName(method)]
	if len(candidates) == 0 {
		candidates = l.methodIndex[method]
	}

	switch len(candidates) {
	case 0:
		// No qualified definition anywhere; drop rather than guess a
		// free function with the same name.
	case 1:
		l.graph.AddCall(callgraph.Call{Caller: caller, Callee: candidates[0], Type: callgraph.CallDynamic})
	default:
		for _, id := range candidates {
			l.graph.MarkAsTraitDispatch(id)
		}
	}
}

// linkScopedCall handles head::tail call targets: Type::func associated
// calls and module::func qualified calls.
func (l *Linker) linkScopedCall(facts *extract.FileFacts, caller callgraph.FunctionID, call extract.CallSite) {
	head, tail, _ := strings.Cut(call.Callee, extract.Qualifier)

	// The head may be an imported module binding: lexer::next_token().
	if module, ok := l.moduleBinding(facts, head); ok {
		if callee, found := l.resolveSymbol(module, tail, nil); found {
			l.graph.AddCall(callgraph.Call{Caller: caller, Callee: callee, Type: callgraph.CallDirect})
			return
		}
	}

	// The head may be an imported type: Lexer::new() where Lexer came
	// from another module.
	if imp, ok := l.symbolBinding(facts, head); ok {
		module := extract.NormalizeModuleRef(imp.Module, facts.File)
		qualified := extract.Qualify(imp.Name, tail)
		if callee, found := l.resolveSymbol(module, qualified, nil); found {
			l.graph.AddCall(callgraph.Call{Caller: caller, Callee: callee, Type: callgraph.CallDirect})
			return
		}
	}

	// Otherwise resolve the full Type::method name through the store.
	ref := callgraph.Ref{
		File:       facts.File,
		Name:       call.Callee,
		Line:       call.Line,
		ModulePath: facts.ModulePath,
	}
	if callee, found := l.graph.FindFunction(ref); found {
		l.graph.AddCall(callgraph.Call{Caller: caller, Callee: callee, Type: callgraph.CallDirect})
	}
}

// resolvePlainName resolves an unqualified callee: same-file definitions
// first, then explicit import bindings, then wildcard imports in file
// order, then the store's fuzzy resolver.
func (l *Linker) resolvePlainName(facts *extract.FileFacts, call extract.CallSite) (callgraph.FunctionID, bool) {
	if ids := l.defsByFile[facts.File][call.Callee]; len(ids) > 0 {
		return closestDefinition(ids, call.Line), true
	}

	if imp, ok := l.symbolBinding(facts, call.Callee); ok {
		module := extract.NormalizeModuleRef(imp.Module, facts.File)
		name := imp.Name
		if name == "" {
			name = call.Callee
		}
		if id, found := l.resolveSymbol(module, name, nil); found {
			return id, true
		}
	}

	// Wildcard imports: the first imported module exporting the name wins.
	for _, imp := range facts.Imports {
		if !imp.Wildcard {
			continue
		}
		module := extract.NormalizeModuleRef(imp.Module, facts.File)
		if id, found := l.resolveSymbol(module, call.Callee, nil); found {
			return id, true
		}
	}

	ref := callgraph.Ref{
		File:       facts.File,
		Name:       call.Callee,
		Line:       call.Line,
		ModulePath: facts.ModulePath,
	}
	if id, found := l.graph.FindFunction(ref); found {
		// The name-only tier may hand back a qualified method for an
		// unqualified call; conflating those reintroduces false caller
		// attribution, so only free-function matches are accepted.
		if !id.IsMethod() {
			return id, true
		}
	}
	return callgraph.FunctionID{}, false
}

// moduleBinding reports whether local names a module in this file:
// either an import of the module itself or a namespace alias.
func (l *Linker) moduleBinding(facts *extract.FileFacts, local string) (string, bool) {
	for _, imp := range facts.Imports {
		if imp.Wildcard || imp.Name != "" {
			continue
		}
		if imp.LocalName() == local {
			return extract.NormalizeModuleRef(imp.Module, facts.File), true
		}
	}
	return "", false
}

// symbolBinding finds the explicit (non-wildcard) import that binds local
// in this file. The first matching import wins.
func (l *Linker) symbolBinding(facts *extract.FileFacts, local string) (extract.Import, bool) {
	for _, imp := range facts.Imports {
		if imp.Wildcard {
			continue
		}
		if imp.Name != "" && imp.LocalName() == local {
			return imp, true
		}
	}
	return extract.Import{}, false
}

type moduleSymbol struct {
	module string
	name   string
}

// resolveSymbol finds the canonical identity of name as exported by
// module, following import chains through re-exporting modules until the
// defining file is reached. The visited set guards against import cycles.
func (l *Linker) resolveSymbol(module, name string, visited map[moduleSymbol]bool) (callgraph.FunctionID, bool) {
	key := moduleSymbol{module, name}
	if visited[key] {
		return callgraph.FunctionID{}, false
	}
	if visited == nil {
		visited = make(map[moduleSymbol]bool)
	}
	visited[key] = true

	for _, file := range l.filesForModule(module) {
		if ids := l.defsByFile[file][name]; len(ids) > 0 {
			return ids[0], true
		}

		// Not defined here: the module may re-export it from elsewhere.
		facts := l.files[file]
		for _, imp := range facts.Imports {
			next := extract.NormalizeModuleRef(imp.Module, file)
			if imp.Wildcard {
				if id, ok := l.resolveSymbol(next, name, visited); ok {
					return id, true
				}
				continue
			}
			if imp.LocalName() != name {
				continue
			}
			target := imp.Name
			if target == "" {
				continue // module binding, not a callable symbol
			}
			if id, ok := l.resolveSymbol(next, target, visited); ok {
				return id, true
			}
		}
	}
	return callgraph.FunctionID{}, false
}

// filesForModule returns the files whose module path matches module. Source
// refers to modules relative to the project (crate::helpers, .utils) while
// file paths may carry an absolute prefix, so an exact miss falls back to a
// dotted-suffix match.
func (l *Linker) filesForModule(module string) []string {
	if files, ok := l.moduleFiles[module]; ok {
		return files
	}
	suffix := "." + module
	var out []string
	for path, files := range l.moduleFiles {
		if strings.HasSuffix(path, suffix) {
			out = append(out, files...)
		}
	}
	sort.Strings(out)
	return out
}

func closestDefinition(ids []callgraph.FunctionID, line uint32) callgraph.FunctionID {
	best := ids[0]
	bestDist := lineDistance(best.Line, line)
	for _, id := range ids[1:] {
		if d := lineDistance(id.Line, line); d < bestDist {
			best, bestDist = id, d
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
