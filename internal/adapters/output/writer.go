// Package output provides adapters for writing application output.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Writer renders candidate lists, messages and interactive prompts to the
// configured destination. By default, it writes to stdout.
type Writer struct {
	out io.Writer
}

// NewWriter creates a new Writer that writes to stdout.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout}
}

// NewWriterWithOutput creates a new Writer with a custom output destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Candidates renders the numbered candidate table. Numbering starts at 1 to
// match what the selection loop accepts.
func (w *Writer) Candidates(list []string) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w.out)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"#", "Commit message"})
	for i, msg := range list {
		tbl.AppendRow(table.Row{i + 1, msg})
	}
	tbl.Render()
	return nil
}

// Message writes a plain informational line.
func (w *Writer) Message(msg string) error {
	_, err := fmt.Fprintln(w.out, msg)
	return err
}

// Warning writes a highlighted warning line.
func (w *Writer) Warning(msg string) error {
	_, err := color.New(color.FgYellow).Fprintf(w.out, "warning: %s\n", msg)
	return err
}

// Prompt writes interactive prompt text without a trailing newline so input
// follows on the same line.
func (w *Writer) Prompt(text string) error {
	_, err := fmt.Fprint(w.out, text)
	return err
}
