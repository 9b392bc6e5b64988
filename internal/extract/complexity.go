package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/quarrydev/quarry/pkg/parser"
)

// branchNodeTypes lists the AST node types that add a decision point in
// each language.
func branchNodeTypes(lang parser.Language) map[string]bool {
	switch lang {
	case parser.LangGo:
		return map[string]bool{
			"if_statement":       true,
			"for_statement":      true,
			"expression_case":    true,
			"type_case":          true,
			"communication_case": true,
			"select_statement":   true,
		}
	case parser.LangRust:
		return map[string]bool{
			"if_expression":    true,
			"match_arm":        true,
			"while_expression": true,
			"for_expression":   true,
			"loop_expression":  true,
		}
	case parser.LangPython:
		return map[string]bool{
			"if_statement":           true,
			"elif_clause":            true,
			"for_statement":          true,
			"while_statement":        true,
			"except_clause":          true,
			"conditional_expression": true,
		}
	case parser.LangTypeScript, parser.LangJavaScript, parser.LangTSX:
		return map[string]bool{
			"if_statement":       true,
			"for_statement":      true,
			"for_in_statement":   true,
			"while_statement":    true,
			"do_statement":       true,
			"switch_case":        true,
			"catch_clause":       true,
			"ternary_expression": true,
		}
	default:
		return nil
	}
}

// countBranches approximates cyclomatic complexity as one plus the number
// of decision points in the function subtree.
func countBranches(fn *sitter.Node, source []byte, lang parser.Language) int {
	branches := branchNodeTypes(lang)
	count := 1
	parser.WalkTyped(fn, source, func(node *sitter.Node, nodeType string, _ []byte) bool {
		// Nested function bodies count toward their own definition.
		if node != fn && isFunctionNode(nodeType, lang) {
			return false
		}
		if branches[nodeType] {
			count++
		}
		return true
	})
	return count
}
