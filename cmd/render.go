package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	agentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// renderer writes the streamed answer to the terminal as it arrives.
type renderer struct {
	out io.Writer
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

func (r *renderer) Agent(agent string) {
	if agent == "" {
		agent = "coach"
	}
	fmt.Fprintln(r.out, agentStyle.Render(agent+":"))
}

func (r *renderer) Token(fragment string) {
	fmt.Fprint(r.out, fragment)
}

func (r *renderer) Error(message string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, errorStyle.Render("error: ")+message)
}

func (r *renderer) Stopped() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, faintStyle.Render("(stopped)"))
}

func (r *renderer) Finish() {
	fmt.Fprintln(r.out)
}
