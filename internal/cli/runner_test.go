package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/kv"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := ui.Out, ui.Err
	ui.SetOutput(&out, &errOut)
	t.Cleanup(func() { ui.SetOutput(prevOut, prevErr) })
	return &out, &errOut
}

func newTestStore(t *testing.T) (*todos.Store, *jsonstore.Store) {
	t.Helper()
	js := jsonstore.New(kv.NewMemory())
	s := todos.New(js)
	if err := s.Hydrate(); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	return s, js
}

func run(t *testing.T, s *todos.Store, args ...string) int {
	t.Helper()
	return Run(s, args, Options{Width: 60})
}

func TestAddListDoneRemove(t *testing.T) {
	out, errOut := captureOutput(t)
	s, js := newTestStore(t)

	if code := run(t, s, "add", "buy", "milk"); code != 0 {
		t.Fatalf("add exit=%d stderr=%s", code, errOut)
	}
	if !strings.Contains(out.String(), "added #1") {
		t.Fatalf("missing add confirmation: %q", out.String())
	}
	if code := run(t, s, "add", "walk dog"); code != 0 {
		t.Fatalf("second add exit=%d", code)
	}
	if code := run(t, s, "done", "#2"); code != 0 {
		t.Fatalf("done exit=%d stderr=%s", code, errOut)
	}
	if code := run(t, s, "rm", "1"); code != 0 {
		t.Fatalf("rm exit=%d stderr=%s", code, errOut)
	}

	want := []model.Item{{ID: 2, Text: "walk dog", Completed: true}}
	snap, _, err := js.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(want, snap.Items) {
		t.Fatalf("stored mismatch\nwant=%+v\ngot=%+v", want, snap.Items)
	}

	out.Reset()
	if code := run(t, s, "ls"); code != 0 {
		t.Fatalf("ls exit=%d", code)
	}
	if !strings.Contains(out.String(), "#2") || !strings.Contains(out.String(), "walk dog") {
		t.Fatalf("ls output missing item:\n%s", out.String())
	}
}

func TestListGroupedAndEmpty(t *testing.T) {
	out, _ := captureOutput(t)
	s, _ := newTestStore(t)

	if code := Run(s, []string{"ls"}, Options{}); code != 0 {
		t.Fatalf("ls exit=%d", code)
	}
	if !strings.Contains(out.String(), "no items") {
		t.Fatalf("expected empty marker:\n%s", out.String())
	}

	_ = s.Add("a")
	_ = s.Add("b")
	_ = s.ToggleCompleted(2)
	out.Reset()
	if code := Run(s, []string{"ls"}, Options{Group: true}); code != 0 {
		t.Fatalf("grouped ls exit=%d", code)
	}
	got := out.String()
	pending, done := strings.Index(got, "Pending"), strings.Index(got, "Done")
	if pending < 0 || done < 0 || pending > done {
		t.Fatalf("unexpected grouping:\n%s", got)
	}
	if !strings.Contains(got[done:], "#2") || strings.Contains(got[done:], "#1") {
		t.Fatalf("items not grouped under the right header:\n%s", got)
	}
}

func TestEditCommitsText(t *testing.T) {
	_, errOut := captureOutput(t)
	s, js := newTestStore(t)
	_ = s.Add("old")

	if code := run(t, s, "edit", "1", "new", "text"); code != 0 {
		t.Fatalf("edit exit=%d stderr=%s", code, errOut)
	}
	it, _ := s.Item(1)
	if it.Text != "new text" || it.EditMode {
		t.Fatalf("unexpected item %+v", it)
	}
	snap, _, _ := js.Load()
	if snap.Items[0].Text != "new text" {
		t.Fatalf("edit not persisted: %+v", snap.Items)
	}

	if code := run(t, s, "edit", "1", "  "); code != 2 {
		t.Fatalf("blank edit exit=%d, want 2", code)
	}
}

func TestUsageAndUnknownIDs(t *testing.T) {
	_, errOut := captureOutput(t)
	s, _ := newTestStore(t)
	_ = s.Add("a")
	before := s.Items()

	cases := [][]string{
		{},
		{"add"},
		{"add", "   "},
		{"done"},
		{"done", "x"},
		{"done", "9"},
		{"rm", "1", "2"},
		{"rm", "7"},
		{"edit", "1"},
		{"export"},
		{"export", "xlsx"},
		{"frobnicate"},
	}
	for _, args := range cases {
		if code := Run(s, args, Options{}); code != 2 {
			t.Fatalf("%v: exit=%d, want 2", args, code)
		}
	}
	if !reflect.DeepEqual(before, s.Items()) {
		t.Fatalf("usage errors changed the list: %+v", s.Items())
	}
	if !strings.Contains(errOut.String(), "no item with id 9") {
		t.Fatalf("missing unknown id message:\n%s", errOut.String())
	}
}

func TestHelp(t *testing.T) {
	out, _ := captureOutput(t)
	s, _ := newTestStore(t)
	if code := run(t, s, "help"); code != 0 {
		t.Fatalf("help exit=%d", code)
	}
	if !strings.Contains(out.String(), "Subcommands:") {
		t.Fatalf("help text missing:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "cp1252") {
		t.Fatalf("help should state the pdf character limit:\n%s", out.String())
	}
}

type brokenKV struct{}

func (brokenKV) Get(string) ([]byte, error) { return nil, kv.ErrNotFound }
func (brokenKV) Set(string, []byte) error   { return errors.New("permission denied") }
func (brokenKV) Close() error               { return nil }

func TestPersistFailureExitsOne(t *testing.T) {
	_, errOut := captureOutput(t)
	s := todos.New(jsonstore.New(brokenKV{}))
	_ = s.Hydrate()

	if code := run(t, s, "add", "a"); code != 1 {
		t.Fatalf("add exit=%d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "not saved") {
		t.Fatalf("missing persistence message:\n%s", errOut.String())
	}
	if s.Len() != 1 {
		t.Fatalf("in-memory add should stand")
	}
}

func TestExportToFileAndStdout(t *testing.T) {
	out, errOut := captureOutput(t)
	s, _ := newTestStore(t)
	_ = s.Add("a")

	if code := run(t, s, "export", "json"); code != 0 {
		t.Fatalf("export stdout exit=%d stderr=%s", code, errOut)
	}
	if !strings.Contains(out.String(), `"text": "a"`) {
		t.Fatalf("unexpected json export:\n%s", out.String())
	}

	path := filepath.Join(t.TempDir(), "todos.csv")
	if code := run(t, s, "export", "csv", path); code != 0 {
		t.Fatalf("export file exit=%d stderr=%s", code, errOut)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "id,text,completed\n1,a,false") {
		t.Fatalf("unexpected csv:\n%s", data)
	}
}

func TestShowRendersMarkdown(t *testing.T) {
	out, _ := captureOutput(t)
	s, _ := newTestStore(t)
	_ = s.Add("water plants")
	if code := run(t, s, "show"); code != 0 {
		t.Fatalf("show exit=%d", code)
	}
	if !strings.Contains(out.String(), "water") || !strings.Contains(out.String(), "plants") {
		t.Fatalf("show output missing item:\n%s", out.String())
	}
}

func TestTUIHook(t *testing.T) {
	captureOutput(t)
	s, _ := newTestStore(t)
	var got *todos.Store
	opt := Options{Interactive: func(st *todos.Store) error {
		got = st
		return nil
	}}
	if code := Run(s, []string{"tui"}, opt); code != 0 {
		t.Fatalf("tui exit=%d", code)
	}
	if got != s {
		t.Fatalf("interactive runner did not receive the store")
	}

	opt.Interactive = func(*todos.Store) error { return errors.New("no tty") }
	if code := Run(s, []string{"tui"}, opt); code != 1 {
		t.Fatalf("failing tui exit=%d, want 1", code)
	}
}
