package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/onboarding"
	"github.com/pkg/errors"
)

type lookupResultMsg struct {
	seq    int
	result onboarding.LookupResult
	err    error
}

type joinResultMsg struct {
	seq int
	err error
}

type joinOrgModel struct {
	code textinput.Model
	spin spinner.Model

	lookingUp bool
	joining   bool
	errMsg    string
}

func newJoinOrgModel() joinOrgModel {
	code := textinput.New()
	code.Placeholder = "e.g. ACME-01"
	code.CharLimit = 32
	code.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return joinOrgModel{code: code, spin: spin}
}

func (m joinOrgModel) init() tea.Cmd {
	return textinput.Blink
}

func (a *App) updateJoinOrg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lookupResultMsg:
		if msg.seq != a.seq {
			return a, nil
		}
		a.joinOrg.lookingUp = false
		switch {
		case msg.err != nil:
			a.joinOrg.errMsg = lookupErrorMessage(msg.err)
		case !msg.result.Found:
			a.joinOrg.errMsg = messageFor(&gravibase.APIError{Code: msg.result.Code})
		default:
			a.joinOrg.errMsg = ""
		}
		return a, nil

	case joinResultMsg:
		if msg.seq != a.seq {
			return a, nil
		}
		a.joinOrg.joining = false
		if msg.err != nil {
			a.joinOrg.errMsg = messageFor(msg.err)
			return a, nil
		}
		return a.gotoDashboard()

	case spinner.TickMsg:
		if !a.joinOrg.lookingUp && !a.joinOrg.joining {
			return a, nil
		}
		var cmd tea.Cmd
		a.joinOrg.spin, cmd = a.joinOrg.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.joinOrg.lookingUp || a.joinOrg.joining {
			return a, nil
		}
		switch msg.String() {
		case "enter":
			if a.machine.State() == onboarding.StateOrgFound {
				return a.submitJoin()
			}
			return a.submitLookup()

		case "ctrl+e":
			// Edit the code again: the join control disappears until the
			// next successful lookup.
			if a.machine.State() == onboarding.StateOrgFound {
				a.joinOrg = newJoinOrgModel()
				return a.gotoJoinOrgKeepState()
			}

		case "ctrl+l":
			return a.logout()
		}
	}

	var cmd tea.Cmd
	a.joinOrg.code, cmd = a.joinOrg.code.Update(msg)
	return a, cmd
}

// gotoJoinOrgKeepState re-renders the join screen without rerunning the
// profile check; the machine is already in an org-entry state.
func (a *App) gotoJoinOrgKeepState() (tea.Model, tea.Cmd) {
	a.screen = screenJoinOrg
	a.seq++
	return a, a.joinOrg.init()
}

func (a *App) submitLookup() (tea.Model, tea.Cmd) {
	raw := a.joinOrg.code.Value()

	a.joinOrg.errMsg = ""
	a.joinOrg.lookingUp = true
	seq := a.seq

	lookupCmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := a.machine.SubmitOrgCode(ctx, raw)
		return lookupResultMsg{seq: seq, result: result, err: err}
	}
	return a, tea.Batch(lookupCmd, a.joinOrg.spin.Tick)
}

func (a *App) submitJoin() (tea.Model, tea.Cmd) {
	a.joinOrg.errMsg = ""
	a.joinOrg.joining = true
	seq := a.seq

	joinCmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := a.machine.ConfirmJoin(ctx)
		return joinResultMsg{seq: seq, err: err}
	}
	return a, tea.Batch(joinCmd, a.joinOrg.spin.Tick)
}

func (a *App) joinOrgView() string {
	m := a.joinOrg
	var b strings.Builder

	b.WriteString(titleStyle.Render("Join Organization"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Enter your organization code to continue."))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Organization code"))
	b.WriteString("\n")
	b.WriteString(m.code.View())
	b.WriteString("\n")

	if org := a.machine.PendingOrg(); org != nil {
		card := successStyle.Render("Organization found") + "\n" +
			labelStyle.Render(org.Name) + " (" + org.OrgCode + ")"
		b.WriteString("\n" + orgCardStyle.Render(card) + "\n")
		b.WriteString(helpStyle.Render("enter: join this organization · ctrl+e: change code"))
	} else {
		b.WriteString("\n" + helpStyle.Render("enter: look up"))
	}

	switch {
	case m.lookingUp:
		b.WriteString("\n" + m.spin.View() + " Looking up...")
	case m.joining:
		b.WriteString("\n" + m.spin.View() + " Joining...")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg))
	}

	b.WriteString("\n" + helpStyle.Render("ctrl+l: log out · ctrl+c: quit"))
	return b.String()
}

// validation sentinels from the machine get their own friendly wording.
func lookupErrorMessage(err error) string {
	switch {
	case errors.Is(err, onboarding.ErrOrgCodeRequired):
		return "Organization code is required."
	case errors.Is(err, onboarding.ErrOrgCodeInvalid):
		return "Only letters, digits and hyphens are allowed."
	default:
		return messageFor(err)
	}
}
