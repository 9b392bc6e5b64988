package callgraph

import "strings"

// CallerType classifies a caller as production or test code. The split feeds
// risk scoring: a function with 90 callers where 85 are tests has a
// production blast radius of 5, not 90.
type CallerType int

const (
	// Production is the default classification.
	Production CallerType = iota
	// Test covers test functions, BDD-style specs, mocks, stubs and fixtures.
	Test
)

func (t CallerType) String() string {
	if t == Test {
		return "test"
	}
	return "production"
}

// ClassifiedCallers is the result of splitting a caller list by type.
type ClassifiedCallers struct {
	Production      []string `json:"production"`
	Test            []string `json:"test"`
	ProductionCount int      `json:"production_count"`
	TestCount       int      `json:"test_count"`
}

// TotalCount returns the combined number of callers.
func (c ClassifiedCallers) TotalCount() int {
	return c.ProductionCount + c.TestCount
}

var testPrefixes = []string{
	"test_",
	"tests_",
	"should_",
	"it_",
	"spec_",
	"verify_",
	"when_",
	"given_",
	"mock_",
	"stub_",
	"fake_",
	"fixture_",
}

var testSuffixes = []string{
	"_test",
	"_tests",
	"_spec",
	"_mock",
	"_stub",
	"_fixture",
}

var testInfixes = []string{
	"_test_",
	"_spec_",
}

// ClassifyCaller classifies a qualified caller name or path as production or
// test. Matching is word-boundary precise: "attest_signature", "contest" and
// "latest" never match the "test" vocabulary. A path segment equal to "test"
// or "tests" (e.g. "crate::tests::helper") classifies as Test regardless of
// the function name.
func ClassifyCaller(caller string) CallerType {
	lower := strings.ToLower(caller)

	for _, segment := range splitPathSegments(lower) {
		if segment == "test" || segment == "tests" {
			return Test
		}
	}

	name := functionName(lower)

	for _, prefix := range testPrefixes {
		if strings.HasPrefix(name, prefix) {
			return Test
		}
	}
	for _, suffix := range testSuffixes {
		if strings.HasSuffix(name, suffix) {
			return Test
		}
	}
	for _, infix := range testInfixes {
		if strings.Contains(name, infix) {
			return Test
		}
	}

	return Production
}

// ClassifyCallers splits a caller list into production and test groups.
func ClassifyCallers(callers []string) ClassifiedCallers {
	var result ClassifiedCallers
	for _, caller := range callers {
		switch ClassifyCaller(caller) {
		case Test:
			result.Test = append(result.Test, caller)
			result.TestCount++
		default:
			result.Production = append(result.Production, caller)
			result.ProductionCount++
		}
	}
	return result
}

// splitPathSegments breaks a qualified name on both module ("::") and path
// ("/") separators so that "crate::tests::helper" and "src/tests/helper.rs"
// expose their segments equally.
func splitPathSegments(caller string) []string {
	return strings.FieldsFunc(caller, func(r rune) bool {
		return r == '/' || r == ':' || r == '.' || r == '\\'
	})
}

// functionName extracts the trailing function-name segment of a qualified
// caller string.
func functionName(caller string) string {
	segments := splitPathSegments(caller)
	if len(segments) == 0 {
		return caller
	}
	return segments[len(segments)-1]
}
