package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Makepad-fr/tada/internal/model"
)

func TestShellLoopRunsCommandsInOneSession(t *testing.T) {
	out, errOut := captureOutput(t)
	s, js := newTestStore(t)

	script := strings.Join([]string{
		`add "buy milk"`,
		``,
		`add 'walk dog'`,
		`done 1`,
		`shell`,
		`rm 2`,
		`exit`,
		`add never`,
	}, "\n")
	in := newBasicLineInput(strings.NewReader(script), out)
	if code := shellLoop(s, in, Options{}); code != 0 {
		t.Fatalf("shell exit=%d stderr=%s", code, errOut)
	}

	want := []model.Item{{ID: 1, Text: "buy milk", Completed: true}}
	if !reflect.DeepEqual(want, s.Items()) {
		t.Fatalf("unexpected list\nwant=%+v\ngot=%+v", want, s.Items())
	}
	snap, _, _ := js.Load()
	if !reflect.DeepEqual(want, snap.Items) {
		t.Fatalf("shell changes not persisted: %+v", snap.Items)
	}
	if !strings.Contains(errOut.String(), "already in a shell") {
		t.Fatalf("nested shell not rejected:\n%s", errOut.String())
	}
	if !strings.Contains(out.String(), shellPrompt) {
		t.Fatalf("prompt not printed")
	}
}

func TestShellLoopStopsAtEOF(t *testing.T) {
	out, _ := captureOutput(t)
	s, _ := newTestStore(t)
	in := newBasicLineInput(strings.NewReader("add last line"), out)
	if code := shellLoop(s, in, Options{}); code != 0 {
		t.Fatalf("shell exit=%d", code)
	}
	if s.Len() != 1 {
		t.Fatalf("unterminated last line not executed")
	}
}

func TestSplitArgs(t *testing.T) {
	cases := map[string][]string{
		`add buy milk`:          {"add", "buy", "milk"},
		`add "buy  milk"`:       {"add", "buy  milk"},
		`edit 2 'it''s'`:        {"edit", "2", "its"},
		"  ls \t ":              {"ls"},
		`add ""`:                {"add", ""},
		`add "unterminated one`: {"add", "unterminated one"},
	}
	for line, want := range cases {
		if got := splitArgs(line); !reflect.DeepEqual(want, got) {
			t.Fatalf("splitArgs(%q)=%q, want %q", line, got, want)
		}
	}
	if got := splitArgs("   "); len(got) != 0 {
		t.Fatalf("expected no args, got %q", got)
	}
}
