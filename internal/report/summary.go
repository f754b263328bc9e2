package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	hbstrings "hotelbooker/pkg/strings"
)

// Column widths of the summary table.
const (
	featureTitleWidth  = 30
	scenarioTitleWidth = 60
)

func statusColor(st Status) text.Colors {
	switch st {
	case Passed:
		return text.Colors{text.FgGreen}
	case Failed:
		return text.Colors{text.FgRed}
	case Skipped:
		return text.Colors{text.FgHiBlack}
	case Pending:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgCyan}
	}
}

// WriteSummary prints one row per scenario followed by the run totals.
func (s *Sink) WriteSummary(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("FEATURE"),
		text.FgHiCyan.Sprint("SCENARIO"),
		text.FgHiCyan.Sprint("STEPS"),
		text.FgHiCyan.Sprint("STATUS"),
	})

	for _, f := range s.Features() {
		for _, sc := range f.Children() {
			st := sc.Status()
			t.AppendRow(table.Row{
				hbstrings.Truncate(f.Title, featureTitleWidth),
				hbstrings.Truncate(sc.Title, scenarioTitleWidth),
				len(sc.Steps()),
				statusColor(st).Sprint(st.String()),
			})
		}
	}

	snap := s.counters.Snapshot()
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d features", snap.Features),
		fmt.Sprintf("%d scenarios", snap.Scenarios),
		snap.Steps,
		fmt.Sprintf("%s / %s / %s / %d other",
			text.FgGreen.Sprintf("%d passed", snap.Passed),
			text.FgRed.Sprintf("%d failed", snap.Failed),
			text.FgHiBlack.Sprintf("%d skipped", snap.Skipped),
			snap.Other),
	})
	t.Render()
}
