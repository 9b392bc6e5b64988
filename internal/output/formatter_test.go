package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"text", FormatText},
		{"", FormatText},
		{"bogus", FormatText},
	}
	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// outputToFile renders a report through a file-backed formatter and
// returns what was written.
func outputToFile(t *testing.T, format Format, r Renderable) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out")

	f, err := NewFormatter(format, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if err := f.Output(r); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output file: %v", err)
	}
	return string(data)
}

func TestFormatterTextOutput(t *testing.T) {
	out := outputToFile(t, FormatText, CallGraphReport(sampleGraph(), 10))

	for _, want := range []string{"Call Graph", "Summary", "Most Depended On", "parse"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("file output should not carry color escapes")
	}
}

func TestFormatterMarkdownOutput(t *testing.T) {
	out := outputToFile(t, FormatMarkdown, CallGraphReport(sampleGraph(), 10))

	if !strings.Contains(out, "# Call Graph") {
		t.Errorf("markdown output missing title heading:\n%s", out)
	}
	if !strings.Contains(out, "| Function | File | Line | Callers |") {
		t.Errorf("markdown output missing table header:\n%s", out)
	}
	if !strings.Contains(out, "| --- |") {
		t.Errorf("markdown output missing separator row:\n%s", out)
	}
}

func TestFormatterJSONOutput(t *testing.T) {
	out := outputToFile(t, FormatJSON, CallGraphReport(sampleGraph(), 10))

	var decoded struct {
		Title    string `json:"title"`
		Sections []any  `json:"sections"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if decoded.Title != "Call Graph" {
		t.Errorf("title = %q, want %q", decoded.Title, "Call Graph")
	}
	if len(decoded.Sections) != 2 {
		t.Errorf("sections = %d, want 2", len(decoded.Sections))
	}
}

func TestFormatterWarningUncolored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	f, err := NewFormatter(FormatText, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	f.Warning("%d files could not be parsed", 3)
	f.Close()

	data, _ := os.ReadFile(path)
	if got := string(data); got != "WARNING: 3 files could not be parsed\n" {
		t.Errorf("Warning output = %q", got)
	}
}

func TestNewFormatterBadPath(t *testing.T) {
	if _, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "no", "such", "dir", "out"), false); err == nil {
		t.Error("Expected error for uncreatable output file")
	}
}

func TestTableRenderDataDerivesRows(t *testing.T) {
	table := NewTable("Hubs", []string{"Function", "Callers"}, [][]string{
		{"parse", "4"},
		{"tokenize", "2"},
	}, nil)

	rows, ok := table.RenderData().([]map[string]string)
	if !ok {
		t.Fatalf("RenderData() = %T, want []map[string]string", table.RenderData())
	}
	if len(rows) != 2 || rows[0]["Function"] != "parse" || rows[1]["Callers"] != "2" {
		t.Errorf("derived rows = %v", rows)
	}
}

func TestTableRenderDataPrefersWrapped(t *testing.T) {
	wrapped := map[string]int{"functions": 7}
	table := NewTable("Summary", nil, nil, wrapped)

	if data, ok := table.RenderData().(map[string]int); !ok || data["functions"] != 7 {
		t.Errorf("RenderData() = %v, want wrapped data", table.RenderData())
	}
}

func TestSectionRenderText(t *testing.T) {
	s := &Section{Title: "Summary", Content: "Functions: 3"}

	var buf bytes.Buffer
	if err := s.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Summary\n=======\n") {
		t.Errorf("missing underlined title:\n%s", out)
	}
	if !strings.Contains(out, "Functions: 3") {
		t.Errorf("missing content:\n%s", out)
	}
}

func TestReportRenderTextSpacing(t *testing.T) {
	r := &Report{
		Title: "Risk",
		Sections: []Renderable{
			&Section{Title: "A", Content: "first"},
			&Section{Title: "B", Content: "second"},
		},
	}

	var buf bytes.Buffer
	if err := r.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := buf.String()

	first := strings.Index(out, "first")
	second := strings.Index(out, "second")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("sections out of order:\n%s", out)
	}
	if !strings.Contains(out, "first\n\n") {
		t.Errorf("sections should be separated by a blank line:\n%s", out)
	}
}

func TestSeverityColorPassthrough(t *testing.T) {
	// Unknown severities come back untouched regardless of color state.
	if got := SeverityColor("unknown", "plain"); got != "plain" {
		t.Errorf("SeverityColor(unknown) = %q", got)
	}
}
