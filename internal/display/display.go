package display

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/nihilok/serverstatus/internal/status"
)

// ANSI palette for terminal compatibility.
var (
	styleUp     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	styleDown   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	styleMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Renderer owns all terminal output. Without a TTY the escape sequences are
// harmless noise and output degrades to plain sequential text, so nothing
// here returns an error.
type Renderer struct {
	Out io.Writer
}

func New(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{Out: out}
}

func (r *Renderer) Clear() {
	fmt.Fprint(r.Out, "\033[2J\033[H")
}

// Sweep redraws the whole view from one completed sweep's snapshot.
func (r *Renderer) Sweep(rows []status.Row) {
	r.Clear()
	fmt.Fprintln(r.Out, styleHeader.Render("Server Status Monitor"))
	fmt.Fprintln(r.Out, styleMuted.Render("─────────────────────"))
	for _, row := range rows {
		fmt.Fprintln(r.Out, line(row))
	}
}

func line(row status.Row) string {
	verdict := styleUp.Render("UP")
	if !row.Up {
		verdict = styleDown.Render("DOWN")
	}
	detail := ""
	switch {
	case row.StatusCode != 0:
		detail = styleMuted.Render(fmt.Sprintf("  [%d]", row.StatusCode))
	case row.Up && row.LatencyMS > 0:
		detail = styleMuted.Render(fmt.Sprintf("  [%.0f ms]", row.LatencyMS))
	}
	return fmt.Sprintf("%-45s %s%s", row.Target, verdict, detail)
}

// Countdown rewrites a single line in place each tick instead of scrolling.
func (r *Renderer) Countdown(remaining int) {
	fmt.Fprintf(r.Out, "\r\033[KNext scan in %2ds ", remaining)
}

// Shutdown leaves the terminal clean on cancellation.
func (r *Renderer) Shutdown() {
	r.Clear()
}
