// Package extract turns parsed source files into per-file call graph facts:
// function definitions, call sites, and import bindings. Method names are
// qualified as Type::method at extraction time so that a method and a free
// function sharing a simple name never collapse into one identity.
package extract

import (
	"path/filepath"
	"strings"

	"github.com/quarrydev/quarry/pkg/parser"
)

// FileFacts holds everything extracted from one source file.
type FileFacts struct {
	File        string          `json:"file"`
	Language    parser.Language `json:"language"`
	ModulePath  string          `json:"module_path"`
	Definitions []Definition    `json:"definitions"`
	Calls       []CallSite      `json:"calls"`
	Imports     []Import        `json:"imports"`
}

// Definition describes one function or method definition.
type Definition struct {
	Name         string `json:"name"` // qualified Type::method for methods
	Line         uint32 `json:"line"`
	EndLine      uint32 `json:"end_line"`
	Complexity   int    `json:"complexity"`
	Lines        int    `json:"lines"`
	IsTest       bool   `json:"is_test,omitempty"`
	IsEntryPoint bool   `json:"is_entry_point,omitempty"`
}

// CallSite describes one call expression inside a function body.
type CallSite struct {
	Caller     string `json:"caller"`             // qualified name of the enclosing function
	CallerLine uint32 `json:"caller_line"`
	Callee     string `json:"callee"`             // callee name as written at the call site
	Receiver   string `json:"receiver,omitempty"` // receiver expression for method-style calls
	Line       uint32 `json:"line"`
}

// Import describes one import binding established by an import statement.
// A binding with an empty Name binds the module itself (import mod); a
// wildcard binding exposes every symbol the module exports.
type Import struct {
	Module   string `json:"module"`          // module reference as written in the source
	Name     string `json:"name,omitempty"`  // imported symbol, empty for module bindings
	Alias    string `json:"alias,omitempty"` // local alias, empty if none
	Wildcard bool   `json:"wildcard,omitempty"`
	Reexport bool   `json:"reexport,omitempty"`
	Line     uint32 `json:"line"`
}

// LocalName returns the identifier this binding introduces in the
// importing file.
func (imp Import) LocalName() string {
	if imp.Alias != "" {
		return imp.Alias
	}
	if imp.Name != "" {
		return imp.Name
	}
	// Module binding: the last path segment is the local name.
	ref := imp.Module
	if i := strings.LastIndexAny(ref, "./:"); i >= 0 {
		ref = ref[i+1:]
	}
	return ref
}

// Extractor parses source files and collects call graph facts.
type Extractor struct {
	parser *parser.Parser
}

// New creates an extractor with its own parser instance. Extractors are
// not safe for concurrent use; create one per worker.
func New() *Extractor {
	return &Extractor{parser: parser.New()}
}

// Close releases the underlying parser.
func (e *Extractor) Close() {
	e.parser.Close()
}

// ExtractFile parses path and returns its facts.
func (e *Extractor) ExtractFile(path string) (*FileFacts, error) {
	result, err := e.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return e.extract(result), nil
}

// ExtractSource parses in-memory source with a known language.
func (e *Extractor) ExtractSource(source []byte, lang parser.Language, path string) (*FileFacts, error) {
	result, err := e.parser.Parse(source, lang, path)
	if err != nil {
		return nil, err
	}
	return e.extract(result), nil
}

func (e *Extractor) extract(result *parser.ParseResult) *FileFacts {
	facts := &FileFacts{
		File:       result.Path,
		Language:   result.Language,
		ModulePath: ModulePathForFile(result.Path),
	}
	collectDefinitionsAndCalls(result, facts)
	collectImports(result, facts)
	return facts
}

// ModulePathForFile derives a dotted module path from a file path.
// "src/parser/lexer.rs" becomes "parser.lexer"; index-like file names
// (mod, lib, index, __init__) collapse into their directory.
func ModulePathForFile(path string) string {
	p := filepath.ToSlash(path)
	p = strings.TrimSuffix(p, filepath.Ext(p))

	segments := strings.Split(p, "/")
	var kept []string
	for _, seg := range segments {
		switch seg {
		case "", ".", "src":
			continue
		}
		kept = append(kept, seg)
	}

	if n := len(kept); n > 0 {
		switch kept[n-1] {
		case "mod", "lib", "index", "__init__", "main":
			kept = kept[:n-1]
		}
	}

	return strings.Join(kept, ".")
}

// NormalizeModuleRef reduces a module reference as written in source to the
// dotted form produced by ModulePathForFile, so the two sides can be
// compared. Handles Rust paths (crate::parser::lexer), Python dotted and
// relative paths (.utils, ..shared.utils), and JS relative specifiers
// (./util, ../shared/util).
func NormalizeModuleRef(ref, fromFile string) string {
	ref = strings.TrimSuffix(ref, ".js")
	ref = strings.TrimSuffix(ref, ".ts")

	if strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") {
		dir := filepath.Dir(fromFile)
		return ModulePathForFile(filepath.Join(dir, ref))
	}

	// Python relative import. One leading dot anchors at the importing
	// file's package; each extra dot climbs one directory.
	if strings.HasPrefix(ref, ".") {
		rest := strings.TrimLeft(ref, ".")
		dir := filepath.Dir(fromFile)
		for i := 0; i < len(ref)-len(rest)-1; i++ {
			dir = filepath.Dir(dir)
		}
		return ModulePathForFile(filepath.Join(dir, strings.ReplaceAll(rest, ".", "/")))
	}

	ref = strings.ReplaceAll(ref, "::", ".")
	ref = strings.ReplaceAll(ref, "/", ".")
	ref = strings.TrimPrefix(ref, "crate.")
	ref = strings.TrimPrefix(ref, "self.")
	return ref
}
