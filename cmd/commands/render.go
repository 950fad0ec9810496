package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D2691E"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
)

// printer writes replies, styled when stdout is a terminal.
type printer struct {
	out io.Writer
	tty bool
	md  *glamour.TermRenderer
}

func newPrinter() *printer {
	p := &printer{out: os.Stdout}
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return p
	}
	p.tty = true

	width := 80
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width-4)); err == nil {
		p.md = r
	}
	return p
}

func (p *printer) heading(s string) {
	if p.tty {
		s = headingStyle.Render(s)
	}
	fmt.Fprintln(p.out, s)
}

func (p *printer) muted(s string) {
	if p.tty {
		s = mutedStyle.Render(s)
	}
	fmt.Fprintln(p.out, s)
}

func (p *printer) failure(s string) {
	if p.tty {
		s = errorStyle.Render(s)
	}
	fmt.Fprintln(p.out, s)
}

// reply renders model output as markdown on a terminal, verbatim otherwise.
func (p *printer) reply(s string) {
	if p.md != nil {
		if out, err := p.md.Render(s); err == nil {
			fmt.Fprintln(p.out, strings.TrimRight(out, "\n"))
			return
		}
	}
	fmt.Fprintln(p.out, s)
}
