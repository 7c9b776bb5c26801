// Package ui renders the human-readable transcript printed by every command.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")
)

// Printer writes status lines to w. Colors are only emitted when w is a
// terminal that supports them.
type Printer struct {
	w       io.Writer
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	title   lipgloss.Style
	muted   lipgloss.Style
}

func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		success: r.NewStyle().Foreground(colorSuccess),
		warning: r.NewStyle().Foreground(colorWarning),
		failure: r.NewStyle().Foreground(colorError).Bold(true),
		title:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
	}
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.success.Render("✅ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.warning.Render("⚠️  "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Fail(format string, args ...any) {
	fmt.Fprintln(p.w, p.failure.Render("❌ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Step(format string, args ...any) {
	fmt.Fprintln(p.w, "🔄 "+fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Hint(format string, args ...any) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(format, args...)))
}

// Banner prints title between two rules of the given width.
func (p *Printer) Banner(title string, width int) {
	rule := strings.Repeat("=", width)
	fmt.Fprintln(p.w, rule)
	fmt.Fprintln(p.w, p.title.Render(title))
	fmt.Fprintln(p.w, rule)
}
