package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/quarrydev/quarry/pkg/parser"
)

func collectImports(result *parser.ParseResult, facts *FileFacts) {
	switch result.Language {
	case parser.LangGo:
		collectGoImports(result, facts)
	case parser.LangRust:
		collectRustImports(result, facts)
	case parser.LangPython:
		collectPythonImports(result, facts)
	case parser.LangTypeScript, parser.LangJavaScript, parser.LangTSX:
		collectJSImports(result, facts)
	}
}

func collectGoImports(result *parser.ParseResult, facts *FileFacts) {
	root := result.Tree.RootNode()
	parser.WalkTyped(root, result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if nodeType != "import_spec" {
			return true
		}
		path := unquote(parser.GetNodeText(node.ChildByFieldName("path"), source))
		if path == "" {
			return true
		}
		facts.Imports = append(facts.Imports, Import{
			Module: path,
			Alias:  parser.GetNodeText(node.ChildByFieldName("name"), source),
			Line:   node.StartPoint().Row + 1,
		})
		return true
	})
}

func collectRustImports(result *parser.ParseResult, facts *FileFacts) {
	root := result.Tree.RootNode()
	parser.WalkTyped(root, result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if nodeType != "use_declaration" {
			return true
		}
		reexport := false
		if node.ChildCount() > 0 && node.Child(0).Type() == "visibility_modifier" {
			reexport = true
		}
		arg := parser.GetNodeText(node.ChildByFieldName("argument"), source)
		line := node.StartPoint().Row + 1
		facts.Imports = append(facts.Imports, parseRustUse(arg, line, reexport)...)
		return true
	})
}

// parseRustUse expands one use path into import bindings. Handles plain
// paths, aliases, wildcards, and brace groups: a::b::{c, d as e, *}.
func parseRustUse(arg string, line uint32, reexport bool) []Import {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil
	}

	if open := strings.IndexByte(arg, '{'); open >= 0 {
		end := strings.LastIndexByte(arg, '}')
		if end < open {
			return nil
		}
		prefix := strings.TrimSuffix(strings.TrimSpace(arg[:open]), "::")
		var imports []Import
		for _, item := range strings.Split(arg[open+1:end], ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			full := item
			if prefix != "" {
				full = prefix + "::" + item
			}
			imports = append(imports, parseRustUse(full, line, reexport)...)
		}
		return imports
	}

	if strings.HasSuffix(arg, "::*") {
		return []Import{{
			Module:   strings.TrimSuffix(arg, "::*"),
			Wildcard: true,
			Reexport: reexport,
			Line:     line,
		}}
	}

	alias := ""
	if i := strings.Index(arg, " as "); i >= 0 {
		alias = strings.TrimSpace(arg[i+4:])
		arg = strings.TrimSpace(arg[:i])
	}

	module, name := arg, ""
	if i := strings.LastIndex(arg, "::"); i >= 0 {
		module, name = arg[:i], arg[i+2:]
	}
	if name == "self" {
		name = ""
	}
	return []Import{{
		Module:   module,
		Name:     name,
		Alias:    alias,
		Reexport: reexport,
		Line:     line,
	}}
}

func collectPythonImports(result *parser.ParseResult, facts *FileFacts) {
	root := result.Tree.RootNode()
	parser.WalkTyped(root, result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		line := node.StartPoint().Row + 1

		switch nodeType {
		case "import_statement":
			// import mod, import mod as m
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				switch child.Type() {
				case "dotted_name":
					facts.Imports = append(facts.Imports, Import{
						Module: parser.GetNodeText(child, source),
						Line:   line,
					})
				case "aliased_import":
					facts.Imports = append(facts.Imports, Import{
						Module: parser.GetNodeText(child.ChildByFieldName("name"), source),
						Alias:  parser.GetNodeText(child.ChildByFieldName("alias"), source),
						Line:   line,
					})
				}
			}

		case "import_from_statement":
			module := parser.GetNodeText(node.ChildByFieldName("module_name"), source)
			if module == "" {
				return true
			}
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				if child == node.ChildByFieldName("module_name") {
					continue
				}
				switch child.Type() {
				case "wildcard_import":
					facts.Imports = append(facts.Imports, Import{
						Module:   module,
						Wildcard: true,
						Line:     line,
					})
				case "dotted_name":
					facts.Imports = append(facts.Imports, Import{
						Module: module,
						Name:   parser.GetNodeText(child, source),
						Line:   line,
					})
				case "aliased_import":
					facts.Imports = append(facts.Imports, Import{
						Module: module,
						Name:   parser.GetNodeText(child.ChildByFieldName("name"), source),
						Alias:  parser.GetNodeText(child.ChildByFieldName("alias"), source),
						Line:   line,
					})
				}
			}
		}
		return true
	})
}

func collectJSImports(result *parser.ParseResult, facts *FileFacts) {
	root := result.Tree.RootNode()
	parser.WalkTyped(root, result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		line := node.StartPoint().Row + 1

		switch nodeType {
		case "import_statement":
			module := unquote(parser.GetNodeText(node.ChildByFieldName("source"), source))
			if module == "" {
				return true
			}
			collectJSImportClause(node, source, module, line, false, facts)

		case "export_statement":
			// export { a } from "./m" and export * from "./m" re-export
			// without binding locally.
			module := unquote(parser.GetNodeText(node.ChildByFieldName("source"), source))
			if module == "" {
				return true
			}
			wildcard := true
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				if child.Type() != "export_clause" {
					continue
				}
				wildcard = false
				collectJSSpecifiers(child, source, module, line, true, facts)
			}
			if wildcard {
				facts.Imports = append(facts.Imports, Import{
					Module:   module,
					Wildcard: true,
					Reexport: true,
					Line:     line,
				})
			}
		}
		return true
	})
}

func collectJSImportClause(node *sitter.Node, source []byte, module string, line uint32, reexport bool, facts *FileFacts) {
	bound := false
	parser.Walk(node, source, func(n *sitter.Node, src []byte) bool {
		switch n.Type() {
		case "namespace_import":
			// import * as ns from "./m" binds the module itself.
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() == "identifier" {
					facts.Imports = append(facts.Imports, Import{
						Module:   module,
						Alias:    parser.GetNodeText(child, src),
						Reexport: reexport,
						Line:     line,
					})
					bound = true
				}
			}
			return false
		case "named_imports":
			collectJSSpecifiers(n, src, module, line, reexport, facts)
			bound = true
			return false
		case "identifier":
			// Default import binds the module under the given name.
			if p := n.Parent(); p != nil && p.Type() == "import_clause" {
				facts.Imports = append(facts.Imports, Import{
					Module:   module,
					Alias:    parser.GetNodeText(n, src),
					Reexport: reexport,
					Line:     line,
				})
				bound = true
			}
		}
		return true
	})
	if !bound {
		// Bare side-effect import: record the module reference only.
		facts.Imports = append(facts.Imports, Import{Module: module, Line: line})
	}
}

func collectJSSpecifiers(clause *sitter.Node, source []byte, module string, line uint32, reexport bool, facts *FileFacts) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec.Type() != "import_specifier" && spec.Type() != "export_specifier" {
			continue
		}
		facts.Imports = append(facts.Imports, Import{
			Module:   module,
			Name:     parser.GetNodeText(spec.ChildByFieldName("name"), source),
			Alias:    parser.GetNodeText(spec.ChildByFieldName("alias"), source),
			Reexport: reexport,
			Line:     line,
		})
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			return s[1 : len(s)-1]
		}
	}
	return s
}
