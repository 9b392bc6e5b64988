package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/quarrydev/quarry/pkg/analyzer/deadcode"
	"github.com/quarrydev/quarry/pkg/analyzer/risk"
	"github.com/quarrydev/quarry/pkg/callgraph"
)

func sampleGraph() *callgraph.CallGraph {
	g := callgraph.New()
	main := callgraph.FunctionID{File: "main.go", Name: "main", Line: 3}
	parse := callgraph.FunctionID{File: "parse.go", Name: "parse", Line: 10}
	orphan := callgraph.FunctionID{File: "parse.go", Name: "orphan", Line: 50}

	g.AddFunction(main, true, false, 1, 5)
	g.AddFunction(parse, false, false, 3, 20)
	g.AddFunction(orphan, false, false, 1, 5)
	g.AddCall(callgraph.Call{Caller: main, Callee: parse, Type: callgraph.CallDirect})
	return g
}

func TestCallGraphReportText(t *testing.T) {
	report := CallGraphReport(sampleGraph(), 10)

	var buf bytes.Buffer
	if err := report.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"Call Graph", "Functions: 3", "Entry points: 1", "parse"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "orphan") {
		t.Error("functions with no callers should not appear in the hub table")
	}
}

func TestCallGraphReportTopN(t *testing.T) {
	g := sampleGraph()
	report := CallGraphReport(g, 0)

	var buf bytes.Buffer
	if err := report.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(buf.String(), "| parse |") {
		t.Errorf("markdown output missing hub row:\n%s", buf.String())
	}
}

func TestDeadCodeReport(t *testing.T) {
	dead := &deadcode.Report{
		Dead: []deadcode.Finding{
			{
				Function:   callgraph.FunctionID{File: "parse.go", Name: "orphan", Line: 50},
				Confidence: 0.98,
				Reason:     "not reachable from any entry point",
			},
		},
		TestHelpers:        []callgraph.FunctionID{{File: "x_test.go", Name: "fixture", Line: 9}},
		TotalFunctions:     3,
		ReachableFunctions: 2,
	}

	report := DeadCodeReport(dead)

	var buf bytes.Buffer
	if err := report.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"Dead Code", "orphan", "98%", "Test Helpers", "fixture"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRiskReport(t *testing.T) {
	scores := &risk.Report{
		Scores: []risk.Score{
			{
				Function:    callgraph.FunctionID{File: "core.go", Name: "process", Line: 10},
				BlastRadius: 12,
				TestCallers: 3,
				Value:       14.4,
				Level:       risk.LevelHigh,
				Coverage:    0.75,
				HasCoverage: true,
			},
			{
				Function: callgraph.FunctionID{File: "misc.go", Name: "helper", Line: 4},
				Value:    1.0,
				Level:    risk.LevelLow,
			},
		},
	}

	report := RiskReport(scores, 1)

	var buf bytes.Buffer
	if err := report.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "process") {
		t.Errorf("output missing top score:\n%s", out)
	}
	if strings.Contains(out, "helper") {
		t.Error("topN should cut the score list")
	}
	if !strings.Contains(out, "75%") {
		t.Errorf("output missing coverage column:\n%s", out)
	}
}

func TestDeadCodeReportJSONData(t *testing.T) {
	dead := &deadcode.Report{TotalFunctions: 1, ReachableFunctions: 1}
	report := DeadCodeReport(dead)

	data := report.RenderData()
	if data != dead {
		t.Errorf("RenderData() = %v, want the underlying report", data)
	}
}
