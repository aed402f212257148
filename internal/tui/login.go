package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type loginResultMsg struct {
	seq int
	err error
}

type loginModel struct {
	username textinput.Model
	password textinput.Model
	focus    int
	spin     spinner.Model

	submitting bool
	errMsg     string
}

func newLoginModel(remembered string) loginModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.SetValue(remembered)
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return loginModel{username: username, password: password, spin: spin}
}

func (m loginModel) init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) rememberedUsername() string {
	return strings.TrimSpace(m.username.Value())
}

func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		if msg.seq != a.seq {
			return a, nil
		}
		a.login.submitting = false
		if msg.err != nil {
			a.login.errMsg = messageFor(msg.err)
			return a, nil
		}
		return a, a.startProfileCheck()

	case spinner.TickMsg:
		if !a.login.submitting {
			return a, nil
		}
		var cmd tea.Cmd
		a.login.spin, cmd = a.login.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.login.submitting {
			return a, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			a.login.focus = (a.login.focus + 1) % 2
			if a.login.focus == 0 {
				a.login.password.Blur()
				return a, a.login.username.Focus()
			}
			a.login.username.Blur()
			return a, a.login.password.Focus()

		case "enter":
			if a.login.focus == 0 {
				a.login.focus = 1
				a.login.username.Blur()
				return a, a.login.password.Focus()
			}
			return a.submitLogin()

		case "ctrl+r":
			return a.gotoRegister()
		}
	}

	var cmd tea.Cmd
	if a.login.focus == 0 {
		a.login.username, cmd = a.login.username.Update(msg)
	} else {
		a.login.password, cmd = a.login.password.Update(msg)
	}
	return a, cmd
}

func (a *App) submitLogin() (tea.Model, tea.Cmd) {
	username := strings.TrimSpace(a.login.username.Value())
	password := a.login.password.Value()

	if username == "" {
		a.login.errMsg = "Username is required."
		return a, nil
	}
	if password == "" {
		a.login.errMsg = "Password is required."
		return a, nil
	}

	a.login.errMsg = ""
	a.login.submitting = true
	a.notice = ""
	seq := a.seq

	loginCmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := a.client.Login(ctx, username, password)
		return loginResultMsg{seq: seq, err: err}
	}
	return a, tea.Batch(loginCmd, a.login.spin.Tick)
}

func (m loginModel) view(appName, notice string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(appName))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Sign in to your workspace"))
	b.WriteString("\n\n")

	if notice != "" {
		b.WriteString(errorStyle.Render(notice))
		b.WriteString("\n\n")
	}

	b.WriteString(labelStyle.Render("Username"))
	b.WriteString("\n")
	b.WriteString(m.username.View())
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n")

	if m.submitting {
		b.WriteString("\n" + m.spin.View() + " Signing in...")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg))
	}

	b.WriteString("\n" + helpStyle.Render("enter: sign in · ctrl+r: create account · ctrl+c: quit"))
	return b.String()
}
