// Package ui renders CLI output: styled messages, result tables and a
// single-line download progress display.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Logo is printed by the root command
const Logo = `
  ╦  ╦ ╦╔═╗╦╔╦╗╔═╗  ╔═╗╦  ╔═╗╦ ╦
  ║  ║ ║║  ║ ║║╠═╣  ╠╣ ║  ║ ║║║║
  ╩═╝╚═╝╚═╝╩═╩╝╩ ╩  ╚  ╩═╝╚═╝╚╩╝
`

// Printer writes styled output. Styling is dropped when out is not a terminal.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a printer for out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, color: IsTerminal(out)}
}

// Stdout returns a printer for standard output
func Stdout() *Printer {
	return NewPrinter(os.Stdout)
}

// IsTerminal reports whether w is a file attached to a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Color reports whether output is styled
func (p *Printer) Color() bool {
	return p.color
}

func (p *Printer) render(style lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return style.Render(text)
}

// Logo prints the application logo
func (p *Printer) Logo() {
	fmt.Fprintln(p.out, p.render(logoStyle, Logo))
}

// Error prints an error message, followed by err when given
func (p *Printer) Error(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(p.out, p.render(errorStyle, "✗ "+msg))
}

// Success prints a success message
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, p.render(successStyle, "✓ "+msg))
}

// Warning prints a warning
func (p *Printer) Warning(msg string) {
	fmt.Fprintln(p.out, p.render(warningStyle, "⚠ "+msg))
}

// Info prints a label/value pair
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.out, "%s: %s\n", p.render(labelStyle, label), p.render(valueStyle, value))
}

// Highlight prints a highlighted line
func (p *Printer) Highlight(msg string) {
	fmt.Fprintln(p.out, p.render(highlightStyle, msg))
}

// Dim prints a de-emphasised line
func (p *Printer) Dim(msg string) {
	fmt.Fprintln(p.out, p.render(dimStyle, msg))
}

// Println prints plain text
func (p *Printer) Println(text string) {
	fmt.Fprintln(p.out, text)
}

// DisableColor forces plain output
func (p *Printer) DisableColor() {
	p.color = false
}
