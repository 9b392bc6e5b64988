package output

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/quarrydev/quarry/pkg/analyzer/deadcode"
	"github.com/quarrydev/quarry/pkg/analyzer/risk"
	"github.com/quarrydev/quarry/pkg/callgraph"
)

// CallGraphReport summarizes a built graph: totals, entry points, and the
// most depended-on functions.
func CallGraphReport(graph *callgraph.CallGraph, topN int) *Report {
	summary := &Section{
		Title: "Summary",
		Content: fmt.Sprintf("Functions: %d\nCalls: %d\nEntry points: %d\nTest functions: %d",
			graph.NodeCount(), graph.EdgeCount(), len(graph.EntryPoints()), len(graph.TestFunctions())),
		Data: map[string]int{
			"functions":      graph.NodeCount(),
			"calls":          graph.EdgeCount(),
			"entry_points":   len(graph.EntryPoints()),
			"test_functions": len(graph.TestFunctions()),
		},
	}

	type hub struct {
		id   callgraph.FunctionID
		deps int
	}
	hubs := make([]hub, 0, graph.NodeCount())
	for _, fn := range graph.AllFunctions() {
		if deps := graph.DependencyCount(fn); deps > 0 {
			hubs = append(hubs, hub{fn, deps})
		}
	}
	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].deps > hubs[j].deps })
	if topN > 0 && len(hubs) > topN {
		hubs = hubs[:topN]
	}

	rows := make([][]string, len(hubs))
	for i, h := range hubs {
		rows[i] = []string{h.id.Name, h.id.File, strconv.Itoa(int(h.id.Line)), strconv.Itoa(h.deps)}
	}

	return &Report{
		Title: "Call Graph",
		Sections: []Renderable{
			summary,
			NewTable("Most Depended On", []string{"Function", "File", "Line", "Callers"}, rows, nil),
		},
	}
}

// DeadCodeReport renders a dead code analysis.
func DeadCodeReport(r *deadcode.Report) *Report {
	rows := make([][]string, len(r.Dead))
	for i, f := range r.Dead {
		rows[i] = []string{
			f.Function.Name,
			f.Function.File,
			strconv.Itoa(int(f.Function.Line)),
			fmt.Sprintf("%.0f%%", f.Confidence*100),
			f.Reason,
		}
	}

	sections := []Renderable{
		&Section{
			Title: "Summary",
			Content: fmt.Sprintf("Functions: %d\nReachable: %d\nDead candidates: %d\nTest helpers: %d",
				r.TotalFunctions, r.ReachableFunctions, len(r.Dead), len(r.TestHelpers)),
			Data: r,
		},
		NewTable("Dead Functions", []string{"Function", "File", "Line", "Confidence", "Reason"}, rows, nil),
	}

	if len(r.TestHelpers) > 0 {
		helperRows := make([][]string, len(r.TestHelpers))
		for i, fn := range r.TestHelpers {
			helperRows[i] = []string{fn.Name, fn.File, strconv.Itoa(int(fn.Line))}
		}
		sections = append(sections, NewTable("Test Helpers", []string{"Function", "File", "Line"}, helperRows, nil))
	}

	return &Report{Title: "Dead Code", Sections: sections, Data: r}
}

// RiskReport renders risk scores, highest first.
func RiskReport(r *risk.Report, topN int) *Report {
	scores := r.Scores
	if topN > 0 && len(scores) > topN {
		scores = scores[:topN]
	}

	rows := make([][]string, len(scores))
	for i, s := range scores {
		coverage := "-"
		if s.HasCoverage {
			coverage = fmt.Sprintf("%.0f%%", s.Coverage*100)
		}
		rows[i] = []string{
			s.Function.Name,
			s.Function.File,
			strconv.Itoa(s.BlastRadius),
			strconv.Itoa(s.TestCallers),
			fmt.Sprintf("%.2f", s.Value),
			coverage,
			SeverityColor(string(s.Level), string(s.Level)),
		}
	}

	return &Report{
		Title: "Risk",
		Sections: []Renderable{
			NewTable("Highest Risk", []string{"Function", "File", "Blast Radius", "Test Callers", "Score", "Coverage", "Level"}, rows, nil),
		},
		Data: r,
	}
}
