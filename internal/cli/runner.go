package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Makepad-fr/tada/internal/export"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group       bool   // list grouped by pending/done
	Width       int    // wrap width for `show`
	HistoryFile string // readline history for `shell`

	// Interactive runs the full-screen list; nil means tui.Run.
	Interactive func(*todos.Store) error
}

// Run dispatches subcommands against a hydrated store and returns an exit
// code (0 ok, 1 error, 2 usage).
func Run(s *todos.Store, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	if args[0] == "shell" {
		return runShell(s, opt)
	}
	return dispatch(s, args, opt)
}

func dispatch(s *todos.Store, args []string, opt Options) int {
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return doList(s, opt)

	case "show":
		fmt.Fprintln(ui.Out, export.RenderMarkdown(s.Items(), opt.Width))
		return 0

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <text...>")
			return 2
		}
		return doAdd(s, strings.Join(a, " "))

	case "done":
		if len(a) != 1 {
			ui.Fail("usage: todo done <id>")
			return 2
		}
		id, code := lookupID(s, "done", a[0])
		if code != 0 {
			return code
		}
		return persisted(s.ToggleCompleted(id), "toggled")

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: todo rm <id>")
			return 2
		}
		id, code := lookupID(s, "rm", a[0])
		if code != 0 {
			return code
		}
		return persisted(s.DeleteByID(id), "removed")

	case "edit":
		if len(a) < 2 {
			ui.Fail("usage: todo edit <id> <text...>")
			return 2
		}
		id, code := lookupID(s, "edit", a[0])
		if code != 0 {
			return code
		}
		return doEdit(s, id, strings.Join(a[1:], " "))

	case "export":
		return doExport(s, a)

	case "tui":
		run := opt.Interactive
		if run == nil {
			run = tui.Run
		}
		if err := run(s); err != nil {
			ui.Fail("tui: " + err.Error())
			return 1
		}
		return 0
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Err)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprint(ui.Out, `todo - a tiny list manager

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  add <text...>          Add a new item (text can be multiple words)
  ls                     List items
  show                   Render the list as markdown
  done <id>              Toggle completion of an item
  rm <id>                Remove an item
  edit <id> <text...>    Replace the text of an item
  export <fmt> [file]    Export as json, csv, md or pdf (stdout without file)
                         (pdf covers cp1252 Latin text only)
  tui                    Interactive full-screen list
  shell                  Read subcommands line by line in one session

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo edit 2 Buy oat milk
  todo rm 3
`)
}

// -------------- subcommand impls ----------------

func doList(s *todos.Store, opt Options) int {
	items := s.Items()
	t := ui.Current()

	d, p := model.Stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Success, t.SymDone), d,
		ui.C(t.Pending, t.SymUnchecked), p,
		ui.C(t.Accent, "Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if opt.Group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(lines)
	return 0
}

func doAdd(s *todos.Store, text string) int {
	if strings.TrimSpace(text) == "" {
		ui.Fail("add: empty text")
		return 2
	}
	code := persisted(s.Add(text), "")
	if code == 0 {
		items := s.Items()
		ui.OK(fmt.Sprintf("added #%d", items[len(items)-1].ID))
	}
	return code
}

func doEdit(s *todos.Store, id int, text string) int {
	if strings.TrimSpace(text) == "" {
		ui.Fail("edit: empty text")
		return 2
	}
	if err := s.SetEditMode(id, true); err != nil {
		return persisted(err, "")
	}
	return persisted(s.UpdateText(id, text), "updated")
}

func doExport(s *todos.Store, a []string) int {
	if len(a) < 1 || len(a) > 2 {
		ui.Fail("usage: todo export <" + strings.Join(export.Formats, "|") + "> [file]")
		return 2
	}
	if len(a) == 1 {
		if err := export.Write(ui.Out, s.Items(), a[0]); err != nil {
			ui.Fail("export: " + err.Error())
			return 2
		}
		return 0
	}

	f, err := os.Create(a[1])
	if err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}
	if err := export.Write(f, s.Items(), a[0]); err != nil {
		_ = f.Close()
		_ = os.Remove(a[1])
		ui.Fail("export: " + err.Error())
		return 2
	}
	if err := f.Close(); err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}
	ui.OK("exported to " + a[1])
	return 0
}

// lookupID parses arg as an item id ("3" or "#3") and checks it exists.
func lookupID(s *todos.Store, cmd, arg string) (int, int) {
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil {
		ui.Fail(cmd + ": not a number: " + arg)
		return 0, 2
	}
	if _, ok := s.Item(id); !ok {
		ui.Fail(fmt.Sprintf("%s: no item with id %d", cmd, id))
		ui.Hint("run `todo ls` to see valid ids")
		return 0, 2
	}
	return id, 0
}

// persisted turns a store error into an exit code. The change is applied
// in memory either way; only durability is at stake.
func persisted(err error, okMsg string) int {
	if err != nil {
		var perr *jsonstore.PersistenceError
		if errors.As(err, &perr) {
			ui.Fail("not saved: " + perr.Error())
		} else {
			ui.Fail(err.Error())
		}
		return 1
	}
	if okMsg != "" {
		ui.OK(okMsg)
	}
	return 0
}

// -------------- rendering helpers --------------

func flatLines(items []model.Item) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		id := fmt.Sprintf("%3s", fmt.Sprintf("#%d", it.ID))
		box := t.BoxUnchecked
		color := t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		text := it.Text
		if r := []rune(text); len(r) > 80 {
			text = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.Dim(id), ui.C(color, box), text))
	}
	return out
}

func groupLines(items []model.Item) []string {
	t := ui.Current()
	var pend, done []model.Item
	for _, it := range items {
		if it.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	var lines []string
	lines = append(lines, ui.C(t.Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}
