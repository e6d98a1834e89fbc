package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"fleetdeck/internal/api"
)

// fetchRosterCmd returns a tea.Cmd that fetches the agent roster. A fetch
// error yields a nil roster, which Update treats as "API offline".
func fetchRosterCmd(c *api.Client) tea.Cmd {
	return func() tea.Msg {
		roster, _ := c.Roster(context.Background())
		return rosterMsg(roster)
	}
}

// fetchRateLimitCmd returns a tea.Cmd that fetches rate-limit status.
func fetchRateLimitCmd(c *api.Client) tea.Cmd {
	return func() tea.Msg {
		rate, _ := c.RateLimit(context.Background())
		return rateLimitMsg(rate)
	}
}

// clearRateLimitCmd asks the orchestrator to clear its rate-limit flag, then
// re-fetches so the status bar reflects the outcome.
func clearRateLimitCmd(c *api.Client) tea.Cmd {
	return func() tea.Msg {
		_ = c.ClearRateLimit(context.Background())
		rate, _ := c.RateLimit(context.Background())
		return rateLimitMsg(rate)
	}
}
