package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fleetdeck/internal/api"
	"fleetdeck/pkg/telemetry"
)

// agentOrder fixes the row order of the agents table. Agents outside this
// list still route through the feed; the table shows the known fleet.
var agentOrder = []telemetry.AgentID{
	telemetry.AgentOrchestrator,
	telemetry.AgentPlanner,
	telemetry.AgentCoder,
	telemetry.AgentTester,
	telemetry.AgentReviewer,
	telemetry.AgentFix,
	telemetry.AgentDesigner,
	telemetry.AgentDBDesigner,
	telemetry.AgentTechArch,
	telemetry.AgentSecurity,
	telemetry.AgentResearcher,
	telemetry.AgentDocsManager,
	telemetry.AgentUTDS,
	telemetry.AgentSystem,
}

// renderAgentsTable renders one row per known agent: status, model, task
// count, token totals, and worker-pool stats.
func renderAgentsTable(states map[telemetry.AgentID]telemetry.AgentState, roster []api.RosterEntry, theme Theme, styles Styles) string {
	var sb strings.Builder

	headers := []string{"Agent", "Status", "Model", "Tasks", "Tokens", "Workers"}
	widths := []int{22, 10, 18, 7, 12, 10}

	headerParts := make([]string, 0, len(headers))
	for i, header := range headers {
		style := styles.AgentCol.
			Width(widths[i]).
			Bold(true).
			Foreground(theme.Primary)
		headerParts = append(headerParts, style.Render(header))
	}
	sb.WriteString(strings.Join(headerParts, " "))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", 84))
	sb.WriteString("\n")

	enabled := rosterEnabled(roster)
	for _, agent := range agentOrder {
		sb.WriteString(renderAgentRow(agent, states[agent], enabled, widths, styles))
		sb.WriteString("\n")
	}

	return sb.String()
}

// rosterEnabled indexes the roster by agent id. An empty roster (API offline)
// returns nil, which renderAgentRow treats as "no roster data".
func rosterEnabled(roster []api.RosterEntry) map[telemetry.AgentID]bool {
	if len(roster) == 0 {
		return nil
	}
	out := make(map[telemetry.AgentID]bool, len(roster))
	for _, r := range roster {
		out[telemetry.NormalizeAgent(r.Agent)] = r.Enabled
	}
	return out
}

// renderAgentRow renders a single agent row.
func renderAgentRow(agent telemetry.AgentID, st telemetry.AgentState, enabled map[telemetry.AgentID]bool, widths []int, styles Styles) string {
	name := string(agent)
	if enabled != nil {
		if on, ok := enabled[agent]; ok && !on {
			name += " (off)"
		}
	}

	status := st.Status
	if status == "" {
		status = "-"
	}

	model := st.CurrentModel
	if model == "" {
		model = st.Model
	}
	if model == "" {
		model = "-"
	}

	tasks := "-"
	if st.TaskCount > 0 {
		tasks = fmt.Sprintf("%d", st.TaskCount)
	}

	tokens := "-"
	if st.Tokens != nil && st.Tokens.TotalTokens > 0 {
		tokens = fmt.Sprintf("%d", st.Tokens.TotalTokens)
	}

	workers := "-"
	if st.Worker != nil {
		workers = fmt.Sprintf("%d/%d", st.Worker.ActiveWorkers, st.Worker.MaxWorkers)
	}

	statusStyle := styles.Muted
	if status == "working" {
		statusStyle = styles.StatusOK
	}

	cells := []string{
		styles.AgentCol.Width(widths[0]).Render(truncate(name, widths[0])),
		styles.AgentCol.Width(widths[1]).Render(statusStyle.Render(truncate(status, widths[1]))),
		styles.AgentCol.Width(widths[2]).Render(truncate(model, widths[2])),
		styles.AgentCol.Width(widths[3]).Render(tasks),
		styles.AgentCol.Width(widths[4]).Render(tokens),
		styles.AgentCol.Width(widths[5]).Render(workers),
	}

	return strings.Join(cells, " ")
}

// renderBatchLine summarizes the task-derivation projection, if one exists.
func renderBatchLine(batch *telemetry.TaskBatch, styles Styles) string {
	if batch == nil {
		return styles.Muted.Render("no task derivation in flight")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("derivation: %s", batch.Status))
	if batch.TotalTasks > 0 {
		sb.WriteString(fmt.Sprintf(" | tasks: %d", batch.TotalTasks))
	}
	if batch.CurrentBatch != nil {
		sb.WriteString(fmt.Sprintf(" | batch %s running", batch.CurrentBatch.ID))
	} else if batch.LastBatch != nil {
		outcome := "ok"
		if !batch.LastBatch.Success {
			outcome = "failed"
		}
		sb.WriteString(fmt.Sprintf(" | batch %s %s", batch.LastBatch.ID, outcome))
	}
	if batch.Status == telemetry.BatchComplete || batch.Status == telemetry.BatchPartial {
		sb.WriteString(fmt.Sprintf(" | done %d / failed %d", batch.Completed, batch.Failed))
	}

	return lipgloss.NewStyle().Render(sb.String())
}

// truncate shortens s to max display characters with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
