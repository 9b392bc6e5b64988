package parser

import (
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", LangGo},
		{"src/lexer.rs", LangRust},
		{"pkg/utils.py", LangPython},
		{"module.pyw", LangPython},
		{"types.pyi", LangPython},
		{"app.ts", LangTypeScript},
		{"component.tsx", LangTSX},
		{"component.jsx", LangTSX}, // JSX uses the TSX grammar
		{"script.js", LangJavaScript},
		{"module.mjs", LangJavaScript},
		{"common.cjs", LangJavaScript},
		{"README.md", LangUnknown},
		{"Cargo.toml", LangUnknown},
		{"Main.java", LangUnknown},
		{"noext", LangUnknown},
		{"SCRIPT.PY", LangPython},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGetTreeSitterLanguage(t *testing.T) {
	for _, lang := range []Language{LangGo, LangRust, LangPython, LangTypeScript, LangTSX, LangJavaScript} {
		tsLang, err := GetTreeSitterLanguage(lang)
		if err != nil || tsLang == nil {
			t.Errorf("GetTreeSitterLanguage(%v) = %v, %v", lang, tsLang, err)
		}
	}
	if _, err := GetTreeSitterLanguage(LangUnknown); err == nil {
		t.Error("GetTreeSitterLanguage(LangUnknown) should return error")
	}
}

func TestParseAllLanguages(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		lang    Language
		defNode string
	}{
		{"go", "package main\n\nfunc tokenize() {}\n", LangGo, "function_declaration"},
		{"rust", "fn next_token() -> u32 { 0 }\n", LangRust, "function_item"},
		{"python", "def resolve(name):\n    return name\n", LangPython, "function_definition"},
		{"typescript", "export function render(): void {}\n", LangTypeScript, "function_declaration"},
		{"javascript", "function render() {}\n", LangJavaScript, "function_declaration"},
	}

	p := New()
	defer p.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Parse([]byte(tt.source), tt.lang, "test."+tt.name)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if result.Language != tt.lang {
				t.Errorf("result.Language = %v, want %v", result.Language, tt.lang)
			}

			found := false
			WalkTyped(result.Tree.RootNode(), result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
				if nodeType == tt.defNode {
					found = true
					return false
				}
				return true
			})
			if !found {
				t.Errorf("parsed tree has no %s node", tt.defNode)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexer.rs")
	if err := os.WriteFile(path, []byte("fn lex() {}\n"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	p := New()
	defer p.Close()

	result, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if result.Language != LangRust {
		t.Errorf("result.Language = %v, want %v", result.Language, LangRust)
	}
	if result.Path != path {
		t.Errorf("result.Path = %v, want %v", result.Path, path)
	}
}

func TestParseFileErrors(t *testing.T) {
	p := New()
	defer p.Close()

	if _, err := p.ParseFile("/nonexistent/path/file.go"); err == nil {
		t.Error("ParseFile() should return error for non-existent file")
	}

	txtFile := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(txtFile, []byte("hello"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := p.ParseFile(txtFile); err == nil {
		t.Error("ParseFile() should return error for unsupported language")
	}
}

func TestWalkVisitsAndStops(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse([]byte("package main\n\nfunc main() {\n\tx := 1\n}\n"), LangGo, "test.go")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	count := 0
	Walk(result.Tree.RootNode(), result.Source, func(node *sitter.Node, source []byte) bool {
		count++
		return true
	})
	if count == 0 {
		t.Error("Walk() visited no nodes")
	}

	// Returning false prunes the subtree.
	pruned := 0
	WalkTyped(result.Tree.RootNode(), result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		pruned++
		return nodeType != "function_declaration"
	})
	if pruned >= count {
		t.Errorf("pruned walk visited %d nodes, full walk %d", pruned, count)
	}
}

func TestWalkNil(t *testing.T) {
	Walk(nil, nil, func(node *sitter.Node, source []byte) bool {
		t.Error("Visitor should not be called for nil node")
		return true
	})
	WalkTyped(nil, nil, func(node *sitter.Node, nodeType string, source []byte) bool {
		t.Error("Visitor should not be called for nil node")
		return true
	})
}

func TestGetNodeText(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse([]byte("package main\n\nfunc hello() {}\n"), LangGo, "test.go")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	var fn *sitter.Node
	WalkTyped(result.Tree.RootNode(), result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if nodeType == "function_declaration" {
			fn = node
			return false
		}
		return true
	})
	if fn == nil {
		t.Fatal("No function declaration found")
	}

	if text := GetNodeText(fn, result.Source); text != "func hello() {}" {
		t.Errorf("GetNodeText() = %q, want %q", text, "func hello() {}")
	}
	if text := GetNodeText(nil, result.Source); text != "" {
		t.Errorf("GetNodeText(nil) = %q, want empty", text)
	}
}
