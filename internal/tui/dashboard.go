package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gravisales/crm/deals"
	"github.com/gravisales/crm/onboarding"
)

type dealsLoadedMsg struct {
	seq   int
	deals []deals.Deal
	err   error
}

type dashboardModel struct {
	spin    spinner.Model
	loading bool
	deals   []deals.Deal
	errMsg  string
}

func newDashboardModel() dashboardModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return dashboardModel{spin: spin, loading: true}
}

// loadDealsCmd fetches the organization's deals in the background.
func (a *App) loadDealsCmd() tea.Cmd {
	seq := a.seq
	orgCode := a.machine.User().OrgCode

	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := a.deals.ListByOrg(ctx, orgCode)
		return dealsLoadedMsg{seq: seq, deals: list, err: err}
	}
	return tea.Batch(fetch, a.dashboard.spin.Tick)
}

func (a *App) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dealsLoadedMsg:
		if msg.seq != a.seq {
			return a, nil
		}
		a.dashboard.loading = false
		if msg.err != nil {
			a.dashboard.errMsg = messageFor(msg.err)
			return a, nil
		}
		a.dashboard.errMsg = ""
		a.dashboard.deals = msg.deals
		return a, nil

	case spinner.TickMsg:
		if !a.dashboard.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.dashboard.spin, cmd = a.dashboard.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			a.dashboard.loading = true
			a.dashboard.errMsg = ""
			return a, a.loadDealsCmd()

		case "ctrl+l":
			return a.logout()
		}
	}
	return a, nil
}

func (m dashboardModel) view(user onboarding.AppUser) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Dashboard"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s · %s", user.Username, user.OrgCode)))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spin.View() + " Loading deals...")
	case m.errMsg != "":
		b.WriteString(errorStyle.Render(m.errMsg))
	case len(m.deals) == 0:
		b.WriteString(subtitleStyle.Render("No deals yet."))
	default:
		b.WriteString(dealHeaderStyle.Render(fmt.Sprintf("%-28s %-20s %-12s %12s", "Title", "Company", "Stage", "Amount")))
		b.WriteString("\n")
		for _, d := range m.deals {
			row := fmt.Sprintf("%-28s %-20s %-12s %12.2f", truncate(d.Title, 28), truncate(d.Company, 20), d.Stage, d.Amount)
			b.WriteString(dealRowStyle.Render(row))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("r: refresh · ctrl+l: log out · ctrl+c: quit"))
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
