package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/mootlabs/moot/internal/consensus"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

// renderResult writes the consensus report as rendered markdown, falling
// back to the raw markdown when the terminal renderer cannot be built.
func renderResult(w io.Writer, res *consensus.Result) error {
	report := buildReport(res)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		if out, rerr := renderer.Render(report); rerr == nil {
			fmt.Fprint(w, out)
			fmt.Fprintln(w, statusLine(res))
			return nil
		}
	}

	fmt.Fprintln(w, report)
	fmt.Fprintln(w, statusLine(res))
	return nil
}

func statusLine(res *consensus.Result) string {
	if res.Success {
		return successStyle.Render(fmt.Sprintf("✓ consensus: %s", res.TerminationReason))
	}
	return failureStyle.Render(fmt.Sprintf("✗ no consensus: %s", res.TerminationReason))
}

// buildReport assembles the markdown consensus report.
func buildReport(res *consensus.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Discussion Report\n\n")
	fmt.Fprintf(&b, "**Topic:** %s\n\n", res.Topic)
	fmt.Fprintf(&b, "**Session:** `%s` | **Protocol:** %s | **Rounds:** %d | **Elapsed:** %s\n\n",
		res.SessionID, res.Config.Protocol, len(res.Rounds), res.ExecutionTime.Round(10*1e6))
	fmt.Fprintf(&b, "**Outcome:** %s (final consensus %.2f, final quality %.2f)\n\n",
		res.TerminationReason, res.FinalConsensus, res.FinalMetrics.OverallScore())

	if len(res.Rounds) > 0 {
		b.WriteString("## Rounds\n\n")
		b.WriteString("| Round | Responses | Quality | Consensus | Clarity | Consistency |\n")
		b.WriteString("|------:|----------:|--------:|----------:|--------:|------------:|\n")
		for _, round := range res.Rounds {
			fmt.Fprintf(&b, "| %d | %d | %.2f | %.2f | %.2f | %.2f |\n",
				round.RoundNumber, len(round.Responses),
				round.Metrics.OverallScore(), round.ConsensusScore,
				round.Metrics.DecisionClarity, round.Metrics.ResponseConsistency)
		}
		b.WriteString("\n")

		final := res.Rounds[len(res.Rounds)-1]
		b.WriteString("## Final Round\n\n")
		for _, resp := range final.Responses {
			fmt.Fprintf(&b, "### %s (%s)\n\n%s\n\n", resp.AgentID, resp.RoleID, resp.Content)
		}
	}

	if len(res.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range res.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	return b.String()
}
