// Package output renders command results for terminals, scripts and agents.
//
// Output adapts to the environment: on a terminal it prints styled text,
// when piped it prints Markdown. JSON is always available with --output json.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out  io.Writer
	err  io.Writer
	mode Mode
	tty  bool

	styles *Styles
}

// NewRenderer creates a renderer writing results to out and diagnostics to errOut.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, tty bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:  out,
		err:  errOut,
		mode: mode,
		tty:  tty,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether results go to a terminal.
func (r *Renderer) IsTTY() bool { return r.tty }

// EffectiveMode resolves ModeAuto against the output device.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.tty {
		return ModeText
	}
	return ModeMarkdown
}

// Writer returns the result writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Println writes a line of plain output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Header writes a section heading.
func (r *Renderer) Header(level int, title string) {
	switch r.EffectiveMode() {
	case ModeMarkdown:
		_, _ = fmt.Fprintf(r.out, "%s %s\n\n", strings.Repeat("#", max(level, 1)), title)
	default:
		_, _ = fmt.Fprintln(r.out, r.style(title, text.Bold))
		_, _ = fmt.Fprintln(r.out)
	}
}

// Success writes a confirmation message.
func (r *Renderer) Success(msg string) {
	_, _ = fmt.Fprintln(r.out, r.style("✓ "+msg, text.FgGreen))
}

// Muted writes secondary information.
func (r *Renderer) Muted(msg string) {
	_, _ = fmt.Fprintln(r.out, r.style(msg, text.Faint))
}

// Warning writes a warning to the diagnostic stream.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.err, r.style("warning: "+msg, text.FgYellow))
}

// Error writes an error to the diagnostic stream.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.err, r.style("error: "+msg, text.FgRed))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes rows under header as a light box table in text mode and as
// a Markdown table otherwise.
func (r *Renderer) Table(header []string, rows [][]string) {
	if len(rows) == 0 {
		r.Muted("(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		_, _ = fmt.Fprintln(r.out)
		return
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// style colours s when writing to a terminal.
func (r *Renderer) style(s string, colors ...text.Color) string {
	if !r.tty || r.EffectiveMode() != ModeText {
		return s
	}
	return text.Colors(colors).Sprint(s)
}
