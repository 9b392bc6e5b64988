package risk

import (
	"github.com/quarrydev/quarry/pkg/callgraph"
)

// CoverageRecord is one function's coverage as reported by an external
// tool. Names may be qualified differently than graph identities and lines
// may drift a little between the coverage run and the analyzed tree, so
// attribution is fuzzy.
type CoverageRecord struct {
	File     string  `json:"file"`
	Function string  `json:"function"`
	Line     uint32  `json:"line"`
	Covered  float64 `json:"covered"` // fraction in [0, 1]
}

// WithCoverage attributes records to graph identities. A record resolves
// through the name resolver first and falls back to the function covering
// its start line. Records that match nothing are ignored.
func WithCoverage(records []CoverageRecord) Option {
	return func(a *Analyzer) {
		a.coverage = attributeCoverage(a.graph, records)
	}
}

func attributeCoverage(graph *callgraph.CallGraph, records []CoverageRecord) map[callgraph.FunctionID]float64 {
	out := make(map[callgraph.FunctionID]float64, len(records))
	for _, rec := range records {
		id, ok := graph.FindFunction(callgraph.Ref{
			File: rec.File,
			Name: rec.Function,
			Line: rec.Line,
		})
		if !ok && rec.Line > 0 {
			id, ok = graph.FindFunctionAtLocation(rec.File, rec.Line)
		}
		if !ok {
			continue
		}
		// Coverage tools can report a function more than once; keep the
		// highest observed fraction.
		if existing, seen := out[id]; !seen || rec.Covered > existing {
			out[id] = rec.Covered
		}
	}
	return out
}
