package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Makepad-fr/tada/internal/model"
)

var sample = []model.Item{
	{ID: 1, Text: "buy milk", Completed: true},
	{ID: 4, Text: "call *mom*, then [dad]"},
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sample, "json"); err != nil {
		t.Fatalf("json export failed: %v", err)
	}
	var got []model.Item
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("exported json does not parse: %v", err)
	}
	if !reflect.DeepEqual(sample, got) {
		t.Fatalf("json mismatch\nwant=%+v\ngot=%+v", sample, got)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, "JSON"); err != nil {
		t.Fatalf("json export failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected [], got %q", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sample, "csv"); err != nil {
		t.Fatalf("csv export failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("csv parse failed: %v", err)
	}
	want := [][]string{
		{"id", "text", "completed"},
		{"1", "buy milk", "true"},
		{"4", "call *mom*, then [dad]", "false"},
	}
	if !reflect.DeepEqual(want, rows) {
		t.Fatalf("csv mismatch\nwant=%v\ngot=%v", want, rows)
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown(sample)
	for _, want := range []string{
		"# Todos (1/2 done)",
		"- [x] buy milk `#1`",
		"- [ ] call \\*mom\\*, then \\[dad\\] `#4`",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("markdown missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(Markdown(nil), "_no items_") {
		t.Fatalf("expected empty marker")
	}
}

func TestRenderMarkdownKeepsText(t *testing.T) {
	out := RenderMarkdown(sample, 60)
	if !strings.Contains(out, "buy milk") {
		t.Fatalf("rendered markdown lost item text:\n%s", out)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	items := append(model.Clone(sample), model.Item{ID: 5, Text: "café"})
	if err := Write(&buf, items, "pdf"); err != nil {
		t.Fatalf("pdf export failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a pdf: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, sample, "xlsx"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

var errClosed = errors.New("pipe closed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errClosed }

func TestWriteCSVReportsWriterError(t *testing.T) {
	if err := Write(failingWriter{}, sample, "csv"); !errors.Is(err, errClosed) {
		t.Fatalf("expected writer error, got %v", err)
	}
	// A row larger than the csv buffer fails inside the loop.
	big := []model.Item{{ID: 1, Text: strings.Repeat("x", 10000)}}
	err := Write(failingWriter{}, big, "csv")
	if !errors.Is(err, errClosed) {
		t.Fatalf("expected writer error, got %v", err)
	}
	if !strings.Contains(err.Error(), "csv") {
		t.Fatalf("error should name the format: %v", err)
	}
}

func TestWritePDFNonLatinText(t *testing.T) {
	var buf bytes.Buffer
	items := []model.Item{{ID: 1, Text: "café"}, {ID: 2, Text: "买牛奶"}}
	if err := Write(&buf, items, "pdf"); err != nil {
		t.Fatalf("pdf export should not fail on non-Latin text: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a pdf")
	}
}
