// Package risk scores functions by the damage a defect in them could do.
// The central signal is blast radius: how much production code transitively
// depends on a function. Test callers are split out so that heavily tested
// code does not read as heavily depended on.
package risk

import (
	"sort"

	"github.com/quarrydev/quarry/pkg/callgraph"
)

// Default thresholds for risk levels.
const (
	DefaultHighRiskBlastRadius     = 10
	DefaultCriticalDependencyCount = 20
	DefaultMaxDepth                = 10
)

// Level buckets a score for presentation.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Score is the risk assessment for one function.
type Score struct {
	Function callgraph.FunctionID `json:"function"`

	// BlastRadius counts transitive production callers. TestCallers
	// counts the transitive callers classified as test code.
	BlastRadius int `json:"blast_radius"`
	TestCallers int `json:"test_callers"`

	// DirectDependents is the number of distinct direct callers.
	DirectDependents int `json:"direct_dependents"`

	Criticality float64 `json:"criticality"`

	// Coverage is the fraction of the function executed by tests,
	// when a coverage record could be attributed. HasCoverage is false
	// otherwise and Coverage is zero.
	Coverage    float64 `json:"coverage"`
	HasCoverage bool    `json:"has_coverage"`

	Value float64 `json:"score"`
	Level Level   `json:"level"`
}

// Report holds scores for every function, highest risk first.
type Report struct {
	Scores []Score `json:"scores"`
}

// Analyzer computes risk scores over a call graph.
type Analyzer struct {
	graph *callgraph.CallGraph

	highBlastRadius int
	criticalDeps    int
	maxDepth        int
	coverage        map[callgraph.FunctionID]float64
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithThresholds overrides the blast radius and dependency count limits
// that promote a function to the high and critical levels.
func WithThresholds(highBlastRadius, criticalDeps int) Option {
	return func(a *Analyzer) {
		if highBlastRadius > 0 {
			a.highBlastRadius = highBlastRadius
		}
		if criticalDeps > 0 {
			a.criticalDeps = criticalDeps
		}
	}
}

// WithMaxDepth bounds the transitive caller traversal.
func WithMaxDepth(depth int) Option {
	return func(a *Analyzer) {
		if depth > 0 {
			a.maxDepth = depth
		}
	}
}

// New creates an analyzer over graph.
func New(graph *callgraph.CallGraph, opts ...Option) *Analyzer {
	a := &Analyzer{
		graph:           graph,
		highBlastRadius: DefaultHighRiskBlastRadius,
		criticalDeps:    DefaultCriticalDependencyCount,
		maxDepth:        DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores every function in the graph.
func (a *Analyzer) Analyze() *Report {
	report := &Report{}
	for _, fn := range a.graph.AllFunctions() {
		report.Scores = append(report.Scores, a.ScoreFunction(fn))
	}
	sort.Slice(report.Scores, func(i, j int) bool {
		if report.Scores[i].Value != report.Scores[j].Value {
			return report.Scores[i].Value > report.Scores[j].Value
		}
		return report.Scores[i].Function.String() < report.Scores[j].Function.String()
	})
	return report
}

// ScoreFunction scores one function.
func (a *Analyzer) ScoreFunction(fn callgraph.FunctionID) Score {
	score := Score{
		Function:         fn,
		DirectDependents: a.graph.DependencyCount(fn),
	}

	// The graph flags test definitions it saw; the name classifier covers
	// callers whose files carry no such flag (vendored code, fixtures).
	for caller := range a.graph.TransitiveCallers(fn, a.maxDepth) {
		if a.graph.IsTestFunction(caller) || callgraph.ClassifyCaller(caller.File+"::"+caller.Name) == callgraph.Test {
			score.TestCallers++
		} else {
			score.BlastRadius++
		}
	}

	score.Criticality = a.criticality(fn)

	if cov, ok := a.coverage[fn]; ok {
		score.Coverage = cov
		score.HasCoverage = true
	}

	// Untested code carries its full weight; covered code is discounted
	// by how much of it tests execute.
	gap := 1.0
	if score.HasCoverage {
		gap = 1.0 - score.Coverage
	}
	score.Value = score.Criticality * float64(score.BlastRadius+1) * gap
	score.Level = a.level(score)
	return score
}

// criticality multiplies a base of 1.0 for each structural signal: being
// an entry point, carrying many direct dependents, and being called
// directly from an entry point.
func (a *Analyzer) criticality(fn callgraph.FunctionID) float64 {
	criticality := 1.0

	if a.graph.IsEntryPoint(fn) {
		criticality *= 2.0
	}

	deps := a.graph.DependencyCount(fn)
	switch {
	case deps > 5:
		criticality *= 1.5
	case deps > 2:
		criticality *= 1.2
	}

	for _, caller := range a.graph.Callers(fn) {
		if a.graph.IsEntryPoint(caller) {
			criticality *= 1.3
			break
		}
	}
	return criticality
}

func (a *Analyzer) level(s Score) Level {
	switch {
	case s.DirectDependents >= a.criticalDeps:
		return LevelCritical
	case s.BlastRadius >= a.highBlastRadius:
		return LevelHigh
	case s.Value >= 2.0:
		return LevelMedium
	default:
		return LevelLow
	}
}
