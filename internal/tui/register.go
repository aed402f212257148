package tui

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/onboarding"
)

// Registration is two steps: the org code is looked up and confirmed before
// any account details are asked for, so a typo never creates an orphaned
// account.
type registerStep int

const (
	stepOrgCode registerStep = iota
	stepDetails
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{2,}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type regLookupMsg struct {
	seq     int
	company *onboarding.Company
	err     error
}

type registerResultMsg struct {
	seq int
	err error
}

type registerModel struct {
	step registerStep

	orgCode  textinput.Model
	username textinput.Model
	email    textinput.Model
	password textinput.Model
	confirm  textinput.Model
	focus    int

	org  *onboarding.Company
	spin spinner.Model

	busy   bool
	errMsg string
}

func newRegisterModel() registerModel {
	orgCode := textinput.New()
	orgCode.Placeholder = "organization code"
	orgCode.CharLimit = 32
	orgCode.Focus()

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64

	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	confirm := textinput.New()
	confirm.Placeholder = "confirm password"
	confirm.CharLimit = 128
	confirm.EchoMode = textinput.EchoPassword

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return registerModel{
		step:     stepOrgCode,
		orgCode:  orgCode,
		username: username,
		email:    email,
		password: password,
		confirm:  confirm,
		spin:     spin,
	}
}

func (m registerModel) init() tea.Cmd {
	return textinput.Blink
}

func (m *registerModel) fields() []*textinput.Model {
	return []*textinput.Model{&m.username, &m.email, &m.password, &m.confirm}
}

func (m *registerModel) setFocus(idx int) tea.Cmd {
	fields := m.fields()
	m.focus = ((idx % len(fields)) + len(fields)) % len(fields)
	var cmd tea.Cmd
	for i, f := range fields {
		if i == m.focus {
			cmd = f.Focus()
		} else {
			f.Blur()
		}
	}
	return cmd
}

func (a *App) updateRegister(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case regLookupMsg:
		if msg.seq != a.seq {
			return a, nil
		}
		a.register.busy = false
		switch {
		case msg.err != nil:
			a.register.errMsg = lookupErrorMessage(msg.err)
		case msg.company == nil:
			a.register.errMsg = messageFor(&gravibase.APIError{Code: gravibase.CodeNotFound})
		case msg.company.IsBlocked:
			a.register.errMsg = messageFor(&gravibase.APIError{Code: gravibase.CodeOrgBlocked})
		default:
			a.register.errMsg = ""
			a.register.org = msg.company
			a.register.step = stepDetails
			return a, a.register.setFocus(0)
		}
		return a, nil

	case registerResultMsg:
		if msg.seq != a.seq {
			return a, nil
		}
		a.register.busy = false
		if msg.err != nil {
			a.register.errMsg = messageFor(msg.err)
			return a, nil
		}
		return a, a.startProfileCheck()

	case spinner.TickMsg:
		if !a.register.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.register.spin, cmd = a.register.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.register.busy {
			return a, nil
		}
		switch msg.String() {
		case "esc":
			if a.register.step == stepDetails {
				// Back to the org step, keeping the entered code.
				a.register.step = stepOrgCode
				a.register.org = nil
				a.register.errMsg = ""
				return a, a.register.orgCode.Focus()
			}
			return a.gotoLogin("")

		case "tab", "down":
			if a.register.step == stepDetails {
				return a, a.register.setFocus(a.register.focus + 1)
			}

		case "shift+tab", "up":
			if a.register.step == stepDetails {
				return a, a.register.setFocus(a.register.focus - 1)
			}

		case "enter":
			if a.register.step == stepOrgCode {
				return a.submitRegisterLookup()
			}
			if a.register.focus < len(a.register.fields())-1 {
				return a, a.register.setFocus(a.register.focus + 1)
			}
			return a.submitRegistration()
		}
	}

	var cmd tea.Cmd
	if a.register.step == stepOrgCode {
		a.register.orgCode, cmd = a.register.orgCode.Update(msg)
	} else {
		fields := a.register.fields()
		*fields[a.register.focus], cmd = fields[a.register.focus].Update(msg)
	}
	return a, cmd
}

func (a *App) submitRegisterLookup() (tea.Model, tea.Cmd) {
	code := onboarding.NormalizeOrgCode(a.register.orgCode.Value())
	if err := onboarding.ValidateOrgCode(code); err != nil {
		a.register.errMsg = lookupErrorMessage(err)
		return a, nil
	}

	a.register.errMsg = ""
	a.register.busy = true
	seq := a.seq

	lookupCmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		company, err := a.dir.CompanyByOrgCode(ctx, code)
		return regLookupMsg{seq: seq, company: company, err: err}
	}
	return a, tea.Batch(lookupCmd, a.register.spin.Tick)
}

func (a *App) submitRegistration() (tea.Model, tea.Cmd) {
	m := &a.register

	username := strings.TrimSpace(m.username.Value())
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()

	switch {
	case !usernamePattern.MatchString(username):
		m.errMsg = "Username must be at least 3 characters: letters, digits and hyphens, starting with a letter."
	case !emailPattern.MatchString(email):
		m.errMsg = "Enter a valid email address."
	case len(password) < 8:
		m.errMsg = "Password must be at least 8 characters."
	case password != m.confirm.Value():
		m.errMsg = "Passwords do not match."
	default:
		m.errMsg = ""
	}
	if m.errMsg != "" {
		return a, nil
	}

	m.busy = true
	seq := a.seq
	orgCode := m.org.OrgCode

	registerCmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		_, err := a.client.Register(ctx, gravibase.RegistrationParams{
			Username: username,
			Email:    email,
			Password: password,
			OrgCode:  orgCode,
		})
		if err != nil {
			return registerResultMsg{seq: seq, err: err}
		}

		// The account and session exist from here on. Role and app-user
		// setup failures are logged and recovered by the profile check
		// rather than aborting a registration that already happened.
		if err := a.client.AssignRole(ctx, username, a.defaultRole); err != nil {
			a.log.Warn().Err(err).Str("username", username).Msg("default role assignment failed")
		}
		user := onboarding.AppUser{
			Username: username,
			Email:    email,
			OrgCode:  orgCode,
			IsActive: true,
		}
		if err := a.dir.CreateAppUser(ctx, user); err != nil {
			a.log.Warn().Err(err).Str("username", username).Msg("app user record creation failed")
		}
		return registerResultMsg{seq: seq}
	}
	return a, tea.Batch(registerCmd, m.spin.Tick)
}

func (m registerModel) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Create Account"))
	b.WriteString("\n")

	if m.step == stepOrgCode {
		b.WriteString(subtitleStyle.Render("First, which organization are you joining?"))
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Organization code"))
		b.WriteString("\n")
		b.WriteString(m.orgCode.View())
		b.WriteString("\n")
	} else {
		card := successStyle.Render("Joining") + " " + labelStyle.Render(m.org.Name) + " (" + m.org.OrgCode + ")"
		b.WriteString(orgCardStyle.Render(card))
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Username") + "\n" + m.username.View() + "\n\n")
		b.WriteString(labelStyle.Render("Email") + "\n" + m.email.View() + "\n\n")
		b.WriteString(labelStyle.Render("Password") + "\n" + m.password.View() + "\n\n")
		b.WriteString(labelStyle.Render("Confirm password") + "\n" + m.confirm.View() + "\n")
	}

	if m.busy {
		b.WriteString("\n" + m.spin.View() + " Working...")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg))
	}

	if m.step == stepOrgCode {
		b.WriteString("\n" + helpStyle.Render("enter: look up · esc: back to sign in · ctrl+c: quit"))
	} else {
		b.WriteString("\n" + helpStyle.Render("enter: next/submit · esc: change organization · ctrl+c: quit"))
	}
	return b.String()
}
