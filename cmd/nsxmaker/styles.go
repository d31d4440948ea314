package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

type printer struct {
	w       io.Writer
	success lipgloss.Style
	info    lipgloss.Style
	skipped lipgloss.Style
}

func newPrinter(w io.Writer) printer {
	r := lipgloss.NewRenderer(w)
	return printer{
		w:       w,
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		info:    r.NewStyle().Foreground(lipgloss.Color("39")),
		skipped: r.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

func (p printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.success.Render(fmt.Sprintf(format, args...)))
}

func (p printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, p.info.Render(fmt.Sprintf(format, args...)))
}

func (p printer) Skipped(format string, args ...any) {
	fmt.Fprintln(p.w, p.skipped.Render(fmt.Sprintf(format, args...)))
}
