package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydev/quarry/pkg/callgraph"
)

func fn(file, name string, line uint32) callgraph.FunctionID {
	return callgraph.FunctionID{File: file, Name: name, Line: line}
}

func addCall(g *callgraph.CallGraph, caller, callee callgraph.FunctionID) {
	g.AddCall(callgraph.Call{Caller: caller, Callee: callee, Type: callgraph.CallDirect})
}

// fanInGraph builds core <- {prod callers} + {test callers}.
func fanInGraph(prod, test int) (*callgraph.CallGraph, callgraph.FunctionID) {
	g := callgraph.New()
	core := fn("src/core.go", "process", 10)
	g.AddFunction(core, false, false, 1, 5)

	for i := 0; i < prod; i++ {
		caller := fn("src/handlers.go", "handle", uint32(20+i*10))
		g.AddFunction(caller, false, false, 1, 5)
		addCall(g, caller, core)
	}
	for i := 0; i < test; i++ {
		caller := fn("src/core_test.go", "TestProcess", uint32(20+i*10))
		g.AddFunction(caller, false, true, 1, 5)
		addCall(g, caller, core)
	}
	return g, core
}

func TestBlastRadiusSplitsTestCallers(t *testing.T) {
	g, core := fanInGraph(3, 2)

	score := New(g).ScoreFunction(core)

	assert.Equal(t, 3, score.BlastRadius)
	assert.Equal(t, 2, score.TestCallers)
	assert.Equal(t, 5, score.DirectDependents)
}

func TestBlastRadiusIsTransitive(t *testing.T) {
	g := callgraph.New()
	core := fn("src/core.go", "process", 10)
	mid := fn("src/mid.go", "dispatch", 10)
	top := fn("src/top.go", "serve", 10)
	for _, id := range []callgraph.FunctionID{core, mid, top} {
		g.AddFunction(id, false, false, 1, 5)
	}
	addCall(g, top, mid)
	addCall(g, mid, core)

	score := New(g).ScoreFunction(core)
	assert.Equal(t, 2, score.BlastRadius)
}

func TestMaxDepthBoundsTraversal(t *testing.T) {
	g := callgraph.New()
	core := fn("src/core.go", "process", 10)
	mid := fn("src/mid.go", "dispatch", 10)
	top := fn("src/top.go", "serve", 10)
	for _, id := range []callgraph.FunctionID{core, mid, top} {
		g.AddFunction(id, false, false, 1, 5)
	}
	addCall(g, top, mid)
	addCall(g, mid, core)

	score := New(g, WithMaxDepth(1)).ScoreFunction(core)
	assert.Equal(t, 1, score.BlastRadius)
}

func TestCriticalityMultipliers(t *testing.T) {
	g := callgraph.New()
	entry := fn("src/main.go", "main", 3)
	g.AddFunction(entry, true, false, 1, 5)

	a := New(g)
	assert.InDelta(t, 2.0, a.criticality(entry), 1e-9)

	// A function called directly from an entry point.
	helper := fn("src/lib.go", "setup", 10)
	g.AddFunction(helper, false, false, 1, 5)
	addCall(g, entry, helper)
	assert.InDelta(t, 1.3, a.criticality(helper), 1e-9)
}

func TestCriticalityDependentTiers(t *testing.T) {
	for _, tt := range []struct {
		callers int
		want    float64
	}{
		{1, 1.0},
		{3, 1.2},
		{6, 1.5},
	} {
		g, core := fanInGraph(tt.callers, 0)
		assert.InDelta(t, tt.want, New(g).criticality(core), 1e-9, "callers=%d", tt.callers)
	}
}

func TestCoverageDiscountsScore(t *testing.T) {
	g, core := fanInGraph(2, 0)

	bare := New(g).ScoreFunction(core)

	covered := New(g, WithCoverage([]CoverageRecord{
		{File: "src/core.go", Function: "process", Line: 10, Covered: 0.9},
	})).ScoreFunction(core)

	require.True(t, covered.HasCoverage)
	assert.InDelta(t, 0.9, covered.Coverage, 1e-9)
	assert.Less(t, covered.Value, bare.Value)
	assert.InDelta(t, bare.Value*0.1, covered.Value, 1e-9)
}

func TestCoverageAttributionByLine(t *testing.T) {
	g := callgraph.New()
	method := fn("src/store.rs", "Store::flush", 40)
	g.AddFunction(method, false, false, 1, 20)

	// The tool reports a differently qualified name; the start line is
	// inside the function body.
	score := New(g, WithCoverage([]CoverageRecord{
		{File: "src/store.rs", Function: "crate::store::flush_inner", Line: 45, Covered: 0.5},
	})).ScoreFunction(method)

	assert.True(t, score.HasCoverage)
	assert.InDelta(t, 0.5, score.Coverage, 1e-9)
}

func TestCoverageAttributionByNormalizedName(t *testing.T) {
	g := callgraph.New()
	generic := fn("src/vec.rs", "push<T>", 12)
	g.AddFunction(generic, false, false, 1, 5)

	score := New(g, WithCoverage([]CoverageRecord{
		{File: "src/vec.rs", Function: "push", Line: 12, Covered: 1.0},
	})).ScoreFunction(generic)

	assert.True(t, score.HasCoverage)
	assert.InDelta(t, 1.0, score.Coverage, 1e-9)
}

func TestUnattributableCoverageIgnored(t *testing.T) {
	g, core := fanInGraph(1, 0)

	score := New(g, WithCoverage([]CoverageRecord{
		{File: "elsewhere.go", Function: "ghost", Line: 999, Covered: 1.0},
	})).ScoreFunction(core)

	assert.False(t, score.HasCoverage)
}

func TestLevels(t *testing.T) {
	g, core := fanInGraph(25, 0)
	score := New(g).ScoreFunction(core)
	assert.Equal(t, LevelCritical, score.Level)

	g, core = fanInGraph(12, 0)
	score = New(g, WithThresholds(10, 20)).ScoreFunction(core)
	assert.Equal(t, LevelHigh, score.Level)

	g, core = fanInGraph(0, 0)
	score = New(g).ScoreFunction(core)
	assert.Equal(t, LevelLow, score.Level)
}

func TestAnalyzeSortsByScore(t *testing.T) {
	g := callgraph.New()
	hot := fn("src/hot.go", "hot", 10)
	cold := fn("src/cold.go", "cold", 10)
	g.AddFunction(hot, false, false, 1, 5)
	g.AddFunction(cold, false, false, 1, 5)
	for i := 0; i < 4; i++ {
		caller := fn("src/callers.go", "use", uint32(10*i+1))
		g.AddFunction(caller, false, false, 1, 5)
		addCall(g, caller, hot)
	}

	report := New(g).Analyze()
	require.NotEmpty(t, report.Scores)
	assert.Equal(t, hot, report.Scores[0].Function)
}
