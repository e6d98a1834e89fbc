package view

import (
	"encoding/json"
	"fmt"
	"strings"

	"fleetdeck/pkg/telemetry"
)

// formatterFunc fills a DisplayLine from one envelope. Formatters are
// presentation-only: separate from the state decoders, tolerant of the same
// malformed-JSON case, falling back to the raw message text.
type formatterFunc func(env telemetry.Envelope, line *DisplayLine)

// formatTable maps event types to presentation formatters. Types without an
// entry render through formatGeneric.
var formatTable = map[telemetry.EventType]formatterFunc{
	telemetry.EventCodeOutput:         formatCodeOutput,
	telemetry.EventCoderTasksOutput:   formatCoderTasks,
	telemetry.EventModelSwitch:        formatModelSwitch,
	telemetry.EventResearchOutput:     formatOutput("🔍", "Research complete"),
	telemetry.EventSecurityOutput:     formatSecurity,
	telemetry.EventSecurityRescan:     formatSecurity,
	telemetry.EventReviewOutput:       formatReview,
	telemetry.EventDesignerOutput:     formatOutput("🎨", "Design updated"),
	telemetry.EventDBDesignerOutput:   formatOutput("🗄", "Schema updated"),
	telemetry.EventUITestResult:       formatUITest,
	telemetry.EventTechStackOutput:    formatOutput("🏗", "Tech stack proposed"),
	telemetry.EventDerivationStart:    formatUTDS("⚙", "Task derivation started"),
	telemetry.EventTasksDerived:       formatUTDS("⚙", "Tasks derived"),
	telemetry.EventBatchStart:         formatUTDS("▶", "Batch started"),
	telemetry.EventBatchComplete:      formatUTDS("■", "Batch finished"),
	telemetry.EventDerivationComplete: formatUTDS("✔", "Task derivation finished"),
}

// format renders env for the user view.
func format(env telemetry.Envelope, line *DisplayLine) {
	if fn, ok := formatTable[env.Event]; ok {
		fn(env, line)
		return
	}
	formatGeneric(env, line)
}

// fallback fills a line with the raw message when its payload cannot be
// structurally interpreted.
func fallback(env telemetry.Envelope, line *DisplayLine) {
	line.Icon = "•"
	line.Title = string(env.Event)
	line.Summary = truncate(env.Message, 120)
	line.Detail = env.Message
}

func formatGeneric(env telemetry.Envelope, line *DisplayLine) {
	line.Icon = "•"
	line.Title = fmt.Sprintf("%s from %s", env.Event, env.Agent)
	line.Summary = truncate(env.Message, 120)
	line.Detail = env.Message
}

func formatCodeOutput(env telemetry.Envelope, line *DisplayLine) {
	var p struct {
		Files         []string `json:"files"`
		Iteration     int      `json:"iteration"`
		MaxIterations int      `json:"maxIterations"`
		Model         string   `json:"model"`
	}
	if err := json.Unmarshal([]byte(env.Message), &p); err != nil {
		fallback(env, line)
		return
	}
	line.Icon = "⌨"
	line.Title = "Code written"
	line.Summary = fmt.Sprintf("%d file(s), iteration %d/%d", len(p.Files), p.Iteration, p.MaxIterations)
	line.Detail = strings.Join(p.Files, ", ")
	if p.Model != "" {
		line.Detail += " (" + p.Model + ")"
	}
}

func formatCoderTasks(env telemetry.Envelope, line *DisplayLine) {
	var p struct {
		Tasks []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"tasks"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(env.Message), &p); err != nil {
		fallback(env, line)
		return
	}
	count := p.Count
	if count == 0 {
		count = len(p.Tasks)
	}
	line.Icon = "☰"
	line.Title = "Tasks updated"
	line.Summary = fmt.Sprintf("%d task(s)", count)
	ids := make([]string, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		ids = append(ids, t.ID)
	}
	line.Detail = strings.Join(ids, ", ")
}

func formatModelSwitch(env telemetry.Envelope, line *DisplayLine) {
	var p struct {
		OldModel string `json:"old_model"`
		NewModel string `json:"new_model"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(env.Message), &p); err != nil {
		fallback(env, line)
		return
	}
	line.Icon = "⇄"
	line.Title = "Model switched"
	line.Summary = fmt.Sprintf("%s → %s", p.OldModel, p.NewModel)
	line.Detail = p.Reason
}

func formatSecurity(env telemetry.Envelope, line *DisplayLine) {
	var p struct {
		Vulnerabilities int    `json:"vulnerabilities"`
		Severity        string `json:"severity"`
		Summary         string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(env.Message), &p); err != nil {
		fallback(env, line)
		return
	}
	line.Icon = "🛡"
	line.Title = "Security scan"
	if p.Vulnerabilities == 0 {
		line.Summary = "no findings"
	} else {
		line.Summary = fmt.Sprintf("%d finding(s), worst %s", p.Vulnerabilities, p.Severity)
	}
	line.Detail = p.Summary
}

func formatReview(env telemetry.Envelope, line *DisplayLine) {
	var p struct {
		Approved bool     `json:"approved"`
		Comments []string `json:"comments"`
		Summary  string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(env.Message), &p); err != nil {
		fallback(env, line)
		return
	}
	line.Icon = "✓"
	line.Title = "Review complete"
	if p.Approved {
		line.Summary = "approved"
	} else {
		line.Summary = fmt.Sprintf("changes requested (%d comment(s))", len(p.Comments))
	}
	line.Detail = p.Summary
}

func formatUITest(env telemetry.Envelope, line *DisplayLine) {
	var p struct {
		Passed int `json:"passed"`
		Failed int `json:"failed"`
		Total  int `json:"total"`
	}
	if err := json.Unmarshal([]byte(env.Message), &p); err != nil {
		fallback(env, line)
		return
	}
	line.Icon = "🧪"
	line.Title = "UI tests"
	line.Summary = fmt.Sprintf("%d/%d passed", p.Passed, p.Total)
	if p.Failed > 0 {
		line.Detail = fmt.Sprintf("%d failing", p.Failed)
	}
}

// formatOutput builds a formatter for output-family events that share the
// summary/content shape.
func formatOutput(icon, title string) formatterFunc {
	return func(env telemetry.Envelope, line *DisplayLine) {
		var p struct {
			Summary string `json:"summary"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(env.Message), &p); err != nil {
			fallback(env, line)
			return
		}
		line.Icon = icon
		line.Title = title
		line.Summary = truncate(p.Summary, 120)
		line.Detail = p.Content
	}
}

// formatUTDS builds a formatter for task-derivation lifecycle events.
func formatUTDS(icon, title string) formatterFunc {
	return func(env telemetry.Envelope, line *DisplayLine) {
		var p struct {
			Total   int    `json:"total"`
			BatchID string `json:"batch_id"`
			Success *bool  `json:"success"`
		}
		if err := json.Unmarshal([]byte(env.Message), &p); err != nil {
			fallback(env, line)
			return
		}
		line.Icon = icon
		line.Title = title
		switch {
		case p.Total > 0:
			line.Summary = fmt.Sprintf("%d task(s)", p.Total)
		case p.BatchID != "":
			line.Summary = "batch " + p.BatchID
		}
		if p.Success != nil && !*p.Success {
			line.Summary = strings.TrimSpace(line.Summary + " (with failures)")
		}
	}
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
