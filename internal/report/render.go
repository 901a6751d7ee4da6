package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
)

// DefaultMaxRows caps how many affected rows are listed per result.
const DefaultMaxRows = 10

// RenderOptions controls text rendering.
type RenderOptions struct {
	// ShowInfo includes info results; otherwise only their count is shown.
	ShowInfo bool

	// MaxRows caps the affected rows listed per result. Zero means
	// DefaultMaxRows.
	MaxRows int
}

type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	critical lipgloss.Style
	warning  lipgloss.Style
	info     lipgloss.Style
	agent    lipgloss.Style
	dim      lipgloss.Style
	ok       lipgloss.Style
}

// newStyles binds styles to the renderer of w, so colors are dropped when
// w is not a terminal.
func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		label:    r.NewStyle().Foreground(lipgloss.Color("#888888")),
		critical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		warning:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5A623")),
		info:     r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		agent:    r.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
		dim:      r.NewStyle().Foreground(lipgloss.Color("#888888")),
		ok:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50")),
	}
}

func (st styles) severity(s ir.Severity) lipgloss.Style {
	switch s {
	case ir.SeverityCritical:
		return st.critical
	case ir.SeverityWarning:
		return st.warning
	default:
		return st.info
	}
}

// Render writes a human-readable report to w.
func Render(w io.Writer, r *engine.Report, opts RenderOptions) error {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	st := newStyles(lipgloss.NewRenderer(w))
	s := Summarize(r)

	var b strings.Builder
	line := func(parts ...string) {
		b.WriteString(strings.Join(parts, ""))
		b.WriteByte('\n')
	}

	line(st.title.Render("nomina validation report"))
	line(st.label.Render("run:     "), r.RunID, " (", string(r.State), ")")
	line(st.label.Render("as of:   "), s.AsOf)
	line(st.label.Render("results: "), countsLine(s.Counts))
	if s.BlocksValuation() {
		line(st.label.Render("verdict: "), st.critical.Render("BLOCKS VALUATION"))
	} else {
		line(st.label.Render("verdict: "), st.ok.Render("no critical findings"))
	}

	for _, g := range GroupBySeverity(r.Results) {
		if g.Severity == ir.SeverityInfo && !opts.ShowInfo {
			continue
		}
		line()
		line(st.severity(g.Severity).Render(fmt.Sprintf("%s (%d)", strings.ToUpper(string(g.Severity)), len(g.Results))))
		for _, res := range g.Results {
			head := st.agent.Render("["+res.Agent+"]") + " " + res.Field
			if res.Kind != "" {
				head += " " + string(res.Kind)
			}
			line("  ", head)
			line("    ", res.Message)
			if len(res.AffectedRows) > 0 {
				line("    ", st.dim.Render("rows: "+rowsLine(res.Collection, res.AffectedRows, opts.MaxRows)))
			}
			if res.Suggestion != "" {
				line("    ", st.dim.Render("fix: "+res.Suggestion))
			}
		}
	}
	if !opts.ShowInfo && s.Counts.Info > 0 {
		line()
		line(st.dim.Render(fmt.Sprintf("(%d info %s hidden)", s.Counts.Info, plural(s.Counts.Info, "result", "results"))))
	}

	if len(r.Agents) > 0 {
		line()
		line(st.title.Render("validators"))
		for _, a := range r.Agents {
			status := fmt.Sprintf("%d %s", a.Results, plural(a.Results, "result", "results"))
			if a.Failed() {
				status = st.critical.Render("FAILED: " + a.Error)
			}
			line(fmt.Sprintf("  tier %d  %-34s ", a.Tier, a.Name), status)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func countsLine(c Counts) string {
	return fmt.Sprintf("%d critical, %d %s, %d info",
		c.Critical, c.Warning, plural(c.Warning, "warning", "warnings"), c.Info)
}

func rowsLine(c ir.Collection, rows []int, limit int) string {
	shown := rows
	if len(shown) > limit {
		shown = shown[:limit]
	}
	parts := make([]string, len(shown))
	for i, r := range shown {
		parts[i] = fmt.Sprintf("%d", r)
	}
	out := string(c) + " " + strings.Join(parts, ", ")
	if extra := len(rows) - len(shown); extra > 0 {
		out += fmt.Sprintf(" (+%d more)", extra)
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
