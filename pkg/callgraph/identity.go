// Package callgraph builds and queries a whole-project function call graph.
//
// The graph is keyed by FunctionID: a (file, qualified name, line) triple.
// Method names are qualified with their declaring type ("Parser::parse") by
// the front-end before they reach this package; a free function and a method
// sharing a simple name are therefore always distinct identities.
package callgraph

import (
	"strconv"
	"strings"
)

// FunctionID uniquely identifies a function or method definition.
// Line disambiguates re-definitions of the same name within one file
// (e.g. monomorphized generic variants).
type FunctionID struct {
	File string `json:"file"`
	Name string `json:"name"`
	Line uint32 `json:"line"`
}

// String renders the identity in file:name:line form.
func (id FunctionID) String() string {
	return id.File + ":" + id.Name + ":" + strconv.FormatUint(uint64(id.Line), 10)
}

// SimpleName returns the method name without its type qualifier,
// or the name unchanged for free functions.
func (id FunctionID) SimpleName() string {
	if i := strings.LastIndex(id.Name, "::"); i >= 0 {
		return id.Name[i+2:]
	}
	return id.Name
}

// IsMethod reports whether the identity names a type-qualified method.
func (id FunctionID) IsMethod() bool {
	return strings.Contains(id.Name, "::")
}

// Ref is an approximate reference to a function, as produced by a call site
// or an external tool. Unlike FunctionID it carries an optional module path
// used as a disambiguation hint during name-only resolution.
type Ref struct {
	File       string
	Name       string
	Line       uint32
	ModulePath string
}

// ID returns the exact identity the reference would have if it were precise.
func (r Ref) ID() FunctionID {
	return FunctionID{File: r.File, Name: r.Name, Line: r.Line}
}

// NormalizeName strips generic-instantiation suffixes so that "map<String>"
// and "map" land in the same lookup bucket. Nothing else is altered: case and
// punctuation inside identifiers are preserved. The function is pure and
// depends only on its input string.
func NormalizeName(name string) string {
	i := strings.IndexByte(name, '<')
	if i <= 0 || !strings.HasSuffix(name, ">") {
		return name
	}
	stripped := name[:i]
	// Rust turbofish: "collect::<Vec<_>>" leaves a dangling path separator.
	stripped = strings.TrimSuffix(stripped, "::")
	return stripped
}

// fuzzyKey buckets same-file definitions by normalized name, ignoring line.
type fuzzyKey struct {
	name string
	file string
}

func fuzzyKeyFor(id FunctionID) fuzzyKey {
	return fuzzyKey{name: NormalizeName(id.Name), file: id.File}
}
