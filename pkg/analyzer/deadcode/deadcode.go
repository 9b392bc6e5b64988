// Package deadcode finds functions no entry point can reach. It runs over
// a finished call graph: reachability is a bitmap BFS from entry points,
// and every unreachable function becomes a finding scored by how likely it
// is to be genuinely dead.
package deadcode

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/quarrydev/quarry/pkg/callgraph"
)

// DefaultMinConfidence filters findings below this score.
const DefaultMinConfidence = 0.8

// Finding is one function judged unreachable.
type Finding struct {
	Function   callgraph.FunctionID `json:"function"`
	Confidence float64              `json:"confidence"`
	Reason     string               `json:"reason"`
	Exported   bool                 `json:"exported,omitempty"`
	InTestCode bool                 `json:"in_test_code,omitempty"`
}

// Report is the result of a dead code pass.
type Report struct {
	Dead []Finding `json:"dead"`
	// TestHelpers are unreachable from entry points but called by tests.
	// They are test infrastructure, not debt.
	TestHelpers []callgraph.FunctionID `json:"test_helpers,omitempty"`

	TotalFunctions     int `json:"total_functions"`
	ReachableFunctions int `json:"reachable_functions"`
}

// Analyzer computes dead code findings over a call graph.
type Analyzer struct {
	graph         *callgraph.CallGraph
	minConfidence float64
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithConfidence sets the minimum confidence threshold for findings.
// Out-of-range values fall back to the default.
func WithConfidence(v float64) Option {
	return func(a *Analyzer) {
		if v > 0 && v <= 1 {
			a.minConfidence = v
		}
	}
}

// New creates an analyzer over graph.
func New(graph *callgraph.CallGraph, opts ...Option) *Analyzer {
	a := &Analyzer{graph: graph, minConfidence: DefaultMinConfidence}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze marks everything reachable from entry points, then classifies
// the remainder. Code reachable only from test functions is test-covered,
// not dead; it surfaces as a helper instead of a finding.
func (a *Analyzer) Analyze() *Report {
	report := &Report{}

	all := a.graph.AllFunctions()
	report.TotalFunctions = len(all)
	if len(all) == 0 {
		return report
	}

	// Dense ids for the bitmaps. AllFunctions is sorted, so numbering is
	// stable across runs.
	ids := make(map[callgraph.FunctionID]uint32, len(all))
	for i, fn := range all {
		ids[fn] = uint32(i)
	}

	production := a.markReachable(a.graph.EntryPoints(), ids)
	testOnly := a.markReachable(a.graph.TestFunctions(), ids)
	report.ReachableFunctions = int(production.GetCardinality())

	for _, fn := range all {
		idx := ids[fn]
		if production.Contains(idx) {
			continue
		}
		if a.graph.IsTestFunction(fn) {
			// Unreached test functions are runner-invoked, not dead.
			continue
		}
		if testOnly.Contains(idx) {
			report.TestHelpers = append(report.TestHelpers, fn)
			continue
		}

		finding := a.score(fn)
		if finding.Confidence >= a.minConfidence {
			report.Dead = append(report.Dead, finding)
		}
	}

	sort.Slice(report.Dead, func(i, j int) bool {
		if report.Dead[i].Confidence != report.Dead[j].Confidence {
			return report.Dead[i].Confidence > report.Dead[j].Confidence
		}
		return report.Dead[i].Function.String() < report.Dead[j].Function.String()
	})
	return report
}

// markReachable runs a BFS from seeds, tracking the visited set in a
// roaring bitmap.
func (a *Analyzer) markReachable(seeds []callgraph.FunctionID, ids map[callgraph.FunctionID]uint32) *roaring.Bitmap {
	reachable := roaring.New()
	queue := make([]callgraph.FunctionID, 0, len(seeds))

	for _, fn := range seeds {
		idx := ids[fn]
		if !reachable.Contains(idx) {
			reachable.Add(idx)
			queue = append(queue, fn)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, callee := range a.graph.Callees(current) {
			idx := ids[callee]
			if !reachable.Contains(idx) {
				reachable.Add(idx)
				queue = append(queue, callee)
			}
		}
	}
	return reachable
}

// score assigns a confidence to an unreachable function. Exported symbols
// may be called from outside the analyzed tree and test code has its own
// lifecycle, so both discount the score.
func (a *Analyzer) score(fn callgraph.FunctionID) Finding {
	finding := Finding{
		Function:   fn,
		Confidence: 0.95,
		Reason:     "not reachable from any entry point",
		Exported:   isExported(fn.SimpleName()),
	}

	if finding.Exported {
		finding.Confidence -= 0.25
	} else {
		finding.Confidence += 0.03
	}

	if node, ok := a.graph.Node(fn); ok && node.IsTest {
		finding.InTestCode = true
		finding.Confidence -= 0.15
	}

	if finding.Confidence > 1.0 {
		finding.Confidence = 1.0
	}
	if finding.Confidence < 0.0 {
		finding.Confidence = 0.0
	}
	return finding
}

// isExported reports whether name starts with an uppercase letter. Exact
// for Go, a usable approximation elsewhere.
func isExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
