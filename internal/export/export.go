package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/jung-kurt/gofpdf"

	"github.com/Makepad-fr/tada/internal/model"
)

// Formats accepted by Write.
var Formats = []string{"json", "csv", "md", "pdf"}

// Write renders items to w in the given format. The pdf format uses the
// core Arial font with the cp1252 code page, so characters outside Western
// European Latin are not rendered faithfully.
func Write(w io.Writer, items []model.Item, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if items == nil {
			items = []model.Item{}
		}
		return enc.Encode(items)
	case "csv":
		return writeCSV(w, items)
	case "md", "markdown":
		_, err := io.WriteString(w, Markdown(items))
		return err
	case "pdf":
		return writePDF(w, items)
	default:
		return fmt.Errorf("unknown format %s (valid: %s)", format, strings.Join(Formats, ", "))
	}
}

// Markdown renders items as a GitHub task list.
func Markdown(items []model.Item) string {
	var b strings.Builder
	done, _ := model.Stats(items)
	fmt.Fprintf(&b, "# Todos (%d/%d done)\n\n", done, len(items))
	if len(items) == 0 {
		b.WriteString("_no items_\n")
		return b.String()
	}
	for _, it := range items {
		box := " "
		if it.Completed {
			box = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s `#%d`\n", box, escapeMarkdown(it.Text), it.ID)
	}
	return b.String()
}

// RenderMarkdown styles Markdown(items) for a terminal of the given width.
// On renderer failure the plain markdown is returned.
func RenderMarkdown(items []model.Item, width int) string {
	content := Markdown(items)
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "#", `\#`,
	"\n", " ",
)

func escapeMarkdown(s string) string { return mdEscaper.Replace(s) }

func writeCSV(w io.Writer, items []model.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "text", "completed"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, it := range items {
		if err := cw.Write([]string{strconv.Itoa(it.ID), it.Text, strconv.FormatBool(it.Completed)}); err != nil {
			return fmt.Errorf("write csv row %d: %w", it.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writePDF renders with the cp1252 translator; runes it cannot map come out
// as other glyphs.
func writePDF(w io.Writer, items []model.Item) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	done, _ := model.Stats(items)
	pdf.Cell(40, 10, fmt.Sprintf("Todos (%d/%d done)", done, len(items)))
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	for _, it := range items {
		box := "[ ]"
		if it.Completed {
			box = "[x]"
		}
		line := fmt.Sprintf("%s #%d %s", box, it.ID, it.Text)
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
