// Package builder orchestrates call graph construction: parallel per-file
// fact extraction, content-hash caching, and the cross-module linking pass.
package builder

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/quarrydev/quarry/internal/cache"
	"github.com/quarrydev/quarry/internal/extract"
	"github.com/quarrydev/quarry/internal/fileproc"
	"github.com/quarrydev/quarry/internal/linker"
	"github.com/quarrydev/quarry/pkg/callgraph"
	"github.com/quarrydev/quarry/pkg/config"
)

// Builder constructs a call graph from a set of source files.
type Builder struct {
	cfg   *config.Config
	cache *cache.Cache
}

// Result is the outcome of a build.
type Result struct {
	Graph *callgraph.CallGraph
	// FilesAnalyzed counts files that produced facts.
	FilesAnalyzed int
	// FilesSkipped counts files that failed to parse or read. Extraction
	// is best effort; a broken file never fails the build.
	FilesSkipped int
}

// New creates a builder. cfg may be nil, in which case defaults apply.
func New(cfg *config.Config) *Builder {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Builder{cfg: cfg}
}

// WithCache attaches a facts cache. Files whose content hash matches a
// cached entry skip parsing entirely.
func (b *Builder) WithCache(c *cache.Cache) *Builder {
	b.cache = c
	return b
}

// Build extracts facts from every file and links them into one graph.
func (b *Builder) Build(ctx context.Context, files []string) (*Result, error) {
	return b.BuildWithProgress(ctx, files, nil)
}

// BuildWithProgress is Build with a per-file progress callback.
func (b *Builder) BuildWithProgress(ctx context.Context, files []string, onProgress fileproc.ProgressFunc) (*Result, error) {
	graph := callgraph.New()
	result := &Result{Graph: graph}

	if len(files) == 0 {
		return result, nil
	}

	facts, errs := fileproc.MapFilesWithContextN(ctx, files, b.cfg.Graph.Workers,
		func(ext *extract.Extractor, path string) (*extract.FileFacts, error) {
			return b.factsFor(ext, path)
		}, onProgress)

	if errs != nil {
		// Context cancellation aborts the build; individual file
		// failures only reduce coverage.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.FilesSkipped = len(errs.Errors)
	}

	// Worker completion order is nondeterministic. Linking is order
	// sensitive for wildcard imports, so fix the order by path.
	sort.Slice(facts, func(i, j int) bool { return facts[i].File < facts[j].File })

	lk := linker.New(graph)
	for _, f := range facts {
		if !b.cfg.Graph.IncludeTests {
			f = withoutTests(f)
		}
		lk.AddFile(f)
		result.FilesAnalyzed++
	}
	lk.Link()

	return result, nil
}

// factsFor extracts facts for one file, consulting the cache first.
func (b *Builder) factsFor(ext *extract.Extractor, path string) (*extract.FileFacts, error) {
	if b.cache == nil {
		return ext.ExtractFile(path)
	}

	hash, err := cache.HashFile(path)
	if err != nil {
		return nil, err
	}
	key := cache.FactsKey(path)

	if data, ok := b.cache.GetWithHash(key, hash); ok {
		var facts extract.FileFacts
		if err := json.Unmarshal(data, &facts); err == nil {
			return &facts, nil
		}
		// Corrupt entry, fall through and rebuild it.
	}

	facts, err := ext.ExtractFile(path)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(facts); err == nil {
		_ = b.cache.SetWithHash(key, hash, data)
	}
	return facts, nil
}

// withoutTests returns a copy of facts with test definitions and their
// outgoing calls removed.
func withoutTests(facts *extract.FileFacts) *extract.FileFacts {
	testDefs := make(map[string]bool)
	for _, def := range facts.Definitions {
		if def.IsTest {
			testDefs[def.Name] = true
		}
	}
	if len(testDefs) == 0 {
		return facts
	}

	filtered := *facts
	filtered.Definitions = make([]extract.Definition, 0, len(facts.Definitions))
	for _, def := range facts.Definitions {
		if !def.IsTest {
			filtered.Definitions = append(filtered.Definitions, def)
		}
	}
	filtered.Calls = make([]extract.CallSite, 0, len(facts.Calls))
	for _, call := range facts.Calls {
		if !testDefs[call.Caller] {
			filtered.Calls = append(filtered.Calls, call)
		}
	}
	return &filtered
}
