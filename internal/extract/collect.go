package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/quarrydev/quarry/pkg/parser"
)

// Qualifier joins a declaring type and a method name into one identity.
const Qualifier = "::"

// Qualify builds the stored name for a method of typeName. A free function
// keeps its simple name.
func Qualify(typeName, name string) string {
	if typeName == "" {
		return name
	}
	return typeName + Qualifier + name
}

// scope tracks the lexical context during a walk: the enclosing type for
// method qualification and the enclosing function for call attribution.
type scope struct {
	typeName string
	fn       string
	fnLine   uint32
	inTests  bool
}

type factWalker struct {
	result     *parser.ParseResult
	facts      *FileFacts
	inTestFile bool
}

func collectDefinitionsAndCalls(result *parser.ParseResult, facts *FileFacts) {
	w := &factWalker{
		result:     result,
		facts:      facts,
		inTestFile: isTestFile(result.Path),
	}
	w.walk(result.Tree.RootNode(), scope{})
}

func (w *factWalker) walk(node *sitter.Node, sc scope) {
	if node == nil {
		return
	}
	source := w.result.Source
	lang := w.result.Language
	nodeType := node.Type()

	// Type containers change the qualification scope for everything below.
	if typeName, ok := typeScopeName(node, nodeType, source, lang); ok {
		inner := sc
		if typeName != "" {
			inner.typeName = typeName
		}
		w.walkChildren(node, inner)
		return
	}

	// Rust test modules mark every contained function as test code.
	if nodeType == "mod_item" && lang == parser.LangRust {
		inner := sc
		if name := parser.GetNodeText(node.ChildByFieldName("name"), source); name == "tests" || name == "test" {
			inner.inTests = true
		}
		w.walkChildren(node, inner)
		return
	}

	if isFunctionNode(nodeType, lang) {
		name := functionName(node, nodeType, source, lang)
		if name == "" {
			// Anonymous function: its calls belong to the outer scope.
			w.walkChildren(node, sc)
			return
		}

		qualified := name
		// Only direct members of a type are methods; functions nested
		// inside a method body stay unqualified.
		if sc.typeName != "" && sc.fn == "" {
			qualified = Qualify(sc.typeName, name)
		}

		line := node.StartPoint().Row + 1
		endLine := node.EndPoint().Row + 1
		w.facts.Definitions = append(w.facts.Definitions, Definition{
			Name:         qualified,
			Line:         line,
			EndLine:      endLine,
			Complexity:   countBranches(node, source, lang),
			Lines:        int(endLine-line) + 1,
			IsTest:       w.isTestDefinition(node, name, sc),
			IsEntryPoint: w.isEntryPoint(node, name, sc),
		})

		inner := sc
		inner.fn = qualified
		inner.fnLine = line
		w.walkChildren(node, inner)
		return
	}

	if isCallNode(nodeType, lang) {
		callee, receiver := calleeWithReceiver(node, source)
		if callee != "" && sc.fn != "" {
			w.facts.Calls = append(w.facts.Calls, CallSite{
				Caller:     sc.fn,
				CallerLine: sc.fnLine,
				Callee:     callee,
				Receiver:   receiver,
				Line:       node.StartPoint().Row + 1,
			})
		}
		// Keep descending: arguments may contain further calls.
	}

	w.walkChildren(node, sc)
}

func (w *factWalker) walkChildren(node *sitter.Node, sc scope) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), sc)
	}
}

// typeScopeName reports whether node opens a type scope and the type name
// methods below it should be qualified with.
func typeScopeName(node *sitter.Node, nodeType string, source []byte, lang parser.Language) (string, bool) {
	switch lang {
	case parser.LangRust:
		if nodeType == "impl_item" {
			return parser.GetNodeText(node.ChildByFieldName("type"), source), true
		}
	case parser.LangPython:
		if nodeType == "class_definition" {
			return parser.GetNodeText(node.ChildByFieldName("name"), source), true
		}
	case parser.LangTypeScript, parser.LangJavaScript, parser.LangTSX:
		if nodeType == "class_declaration" || nodeType == "class" {
			return parser.GetNodeText(node.ChildByFieldName("name"), source), true
		}
	}
	return "", false
}

func isFunctionNode(nodeType string, lang parser.Language) bool {
	switch lang {
	case parser.LangGo:
		return nodeType == "function_declaration" || nodeType == "method_declaration"
	case parser.LangRust:
		return nodeType == "function_item"
	case parser.LangPython:
		return nodeType == "function_definition"
	case parser.LangTypeScript, parser.LangJavaScript, parser.LangTSX:
		switch nodeType {
		case "function_declaration", "method_definition", "arrow_function", "function_expression", "function", "generator_function_declaration":
			return true
		}
	}
	return false
}

// functionName extracts the declared name. Go methods come back already
// qualified with their receiver type; arrow functions take the name of the
// variable they are assigned to.
func functionName(node *sitter.Node, nodeType string, source []byte, lang parser.Language) string {
	if lang == parser.LangGo && nodeType == "method_declaration" {
		name := parser.GetNodeText(node.ChildByFieldName("name"), source)
		if recv := goReceiverType(node, source); recv != "" {
			return Qualify(recv, name)
		}
		return name
	}

	if name := parser.GetNodeText(node.ChildByFieldName("name"), source); name != "" {
		return name
	}

	// const f = () => {} and const f = function () {}
	if parent := node.Parent(); parent != nil && parent.Type() == "variable_declarator" {
		return parser.GetNodeText(parent.ChildByFieldName("name"), source)
	}
	return ""
}

func goReceiverType(node *sitter.Node, source []byte) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}
	for i := 0; i < int(receiver.ChildCount()); i++ {
		child := receiver.Child(i)
		if child.Type() == "parameter_declaration" {
			text := parser.GetNodeText(child.ChildByFieldName("type"), source)
			text = strings.TrimPrefix(text, "*")
			// Drop generic type parameters on the receiver.
			if j := strings.IndexByte(text, '['); j > 0 {
				text = text[:j]
			}
			return text
		}
	}
	return ""
}

func isCallNode(nodeType string, lang parser.Language) bool {
	switch lang {
	case parser.LangPython:
		return nodeType == "call"
	default:
		return nodeType == "call_expression"
	}
}

// calleeWithReceiver splits a call target into the called name and, for
// method-style calls, the receiver expression text.
func calleeWithReceiver(node *sitter.Node, source []byte) (callee, receiver string) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil && node.ChildCount() > 0 {
		fnNode = node.Child(0)
	}
	if fnNode == nil {
		return "", ""
	}

	switch fnNode.Type() {
	case "selector_expression": // Go: recv.method()
		callee = parser.GetNodeText(fnNode.ChildByFieldName("field"), source)
		receiver = parser.GetNodeText(fnNode.ChildByFieldName("operand"), source)
	case "field_expression": // Rust: recv.method()
		callee = parser.GetNodeText(fnNode.ChildByFieldName("field"), source)
		receiver = parser.GetNodeText(fnNode.ChildByFieldName("value"), source)
	case "attribute": // Python: recv.method()
		callee = parser.GetNodeText(fnNode.ChildByFieldName("attribute"), source)
		receiver = parser.GetNodeText(fnNode.ChildByFieldName("object"), source)
	case "member_expression": // JS/TS: recv.method()
		callee = parser.GetNodeText(fnNode.ChildByFieldName("property"), source)
		receiver = parser.GetNodeText(fnNode.ChildByFieldName("object"), source)
	case "scoped_identifier": // Rust: Type::func() or module::func()
		callee = parser.GetNodeText(fnNode, source)
	default:
		callee = parser.GetNodeText(fnNode, source)
	}

	return callee, receiver
}

func (w *factWalker) isTestDefinition(node *sitter.Node, simpleName string, sc scope) bool {
	if sc.inTests {
		return true
	}
	lang := w.result.Language

	switch lang {
	case parser.LangGo:
		if w.inTestFile {
			return strings.HasPrefix(simpleName, "Test") ||
				strings.HasPrefix(simpleName, "Benchmark") ||
				strings.HasPrefix(simpleName, "Fuzz") ||
				strings.HasPrefix(simpleName, "Example")
		}
	case parser.LangRust:
		return hasPrecedingAttribute(node, w.result.Source, "#[test]") ||
			hasPrecedingAttribute(node, w.result.Source, "#[tokio::test]")
	case parser.LangPython:
		return w.inTestFile || strings.HasPrefix(simpleName, "test_")
	case parser.LangTypeScript, parser.LangJavaScript, parser.LangTSX:
		return w.inTestFile
	}
	return false
}

func (w *factWalker) isEntryPoint(node *sitter.Node, simpleName string, sc scope) bool {
	if sc.typeName != "" || sc.fn != "" {
		return false
	}
	lang := w.result.Language

	if simpleName == "main" && (lang == parser.LangGo || lang == parser.LangRust) {
		return true
	}

	// FFI exports are reachable from outside the analyzed code.
	switch lang {
	case parser.LangGo:
		return hasPrecedingAttribute(node, w.result.Source, "//export ")
	case parser.LangRust:
		return hasPrecedingAttribute(node, w.result.Source, "#[no_mangle]")
	}
	return false
}

// hasPrecedingAttribute scans a short window of source before the node for
// a marker like a Rust attribute or a Go export directive.
func hasPrecedingAttribute(node *sitter.Node, source []byte, marker string) bool {
	start := node.StartByte()
	if start == 0 {
		return false
	}
	windowStart := uint32(0)
	if start > 200 {
		windowStart = start - 200
	}
	return strings.Contains(string(source[windowStart:start]), marker)
}

// isTestFile reports whether a path looks like test code from its name
// alone: Go _test files, tests/ directories, .test/.spec JS files, and
// Python test_ modules.
func isTestFile(path string) bool {
	p := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	base := p
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		base = p[i+1:]
	}

	if strings.HasSuffix(base, "_test.go") {
		return true
	}
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "test" || seg == "tests" || seg == "__tests__" {
			return true
		}
	}
	return false
}
