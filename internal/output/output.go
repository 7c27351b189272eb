// Package output provides consistent CLI output formatting. Human
// output uses simple ANSI color when the destination is a terminal;
// every command also supports machine-readable JSON through the same
// Writer.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ANSI codes. Applied only when the writer detected a terminal.
const (
	colorReset = "\033[0m"
	colorDim   = "\033[2m"
	colorBold  = "\033[1m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

// Writer provides formatted output for the CLI.
type Writer struct {
	out      io.Writer
	useColor bool
}

// New creates a Writer. Color turns on only for terminal outputs and
// respects the NO_COLOR convention.
func New(out io.Writer) *Writer {
	return &Writer{out: out, useColor: isTTY(out) && !noColor()}
}

// NewPlain creates a Writer that never colors, regardless of the
// destination.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func noColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

func (w *Writer) paint(code, s string) string {
	if !w.useColor {
		return s
	}
	return code + s + colorReset
}

// Printf writes a formatted line.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Success prints a confirmation line.
func (w *Writer) Success(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.paint(colorGreen, "ok"), fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (w *Writer) Error(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.paint(colorRed, "error:"), fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON. Used by every command's --json mode.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Hit prints one ranked search result: a bold path with score, then an
// optional dimmed snippet line.
func (w *Writer) Hit(rank int, path, title, snippet string, score float64) {
	label := path
	if title != "" {
		label = fmt.Sprintf("%s (%s)", path, title)
	}
	w.Printf("%2d. %s  %s", rank, w.paint(colorBold, label), w.paint(colorDim, fmt.Sprintf("%.4f", score)))
	if snippet != "" {
		w.Printf("    %s", w.paint(colorDim, oneLine(snippet)))
	}
}

// List prints items one per line with a two-space indent.
func (w *Writer) List(items []string) {
	for _, item := range items {
		w.Printf("  %s", item)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
