// Package tui is the terminal UI for the GraviSales client. It follows the
// Elm architecture: one App model, messages for every async backend result,
// and a View rendered from state. Which screen is reachable is always
// decided by the onboarding state machine, never by the UI itself.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gravisales/crm/deals"
	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/onboarding"
	"github.com/rs/zerolog"
)

// screen identifies which view is on screen.
type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenChecking // profile check between login and the gated screens
	screenJoinOrg
	screenDashboard
)

const requestTimeout = 30 * time.Second

// profileCheckedMsg carries the outcome of the onboarding profile check.
type profileCheckedMsg struct {
	seq   int
	state onboarding.State
	err   error
}

// Deps carries everything the root model needs. Directory and DefaultRole
// are only used by the registration flow, which runs before the onboarding
// machine has a session to work with.
type Deps struct {
	AppName            string
	Client             *gravibase.Client
	Machine            *onboarding.Machine
	Directory          onboarding.Directory
	Deals              *deals.Service
	Logger             zerolog.Logger
	DefaultRole        string
	RememberedUsername string
}

// App is the root bubbletea model.
type App struct {
	client      *gravibase.Client
	machine     *onboarding.Machine
	dir         onboarding.Directory
	deals       *deals.Service
	log         zerolog.Logger
	appName     string
	defaultRole string

	screen screen
	width  int
	height int

	// seq guards against async responses arriving for a screen the user
	// already left: every screen switch bumps it, stale messages are
	// dropped in Update.
	seq int

	login     loginModel
	register  registerModel
	joinOrg   joinOrgModel
	dashboard dashboardModel

	// banner shown on the login screen after an external event, e.g. a
	// terminal refresh failure.
	notice string

	// profile-check failure shown on the checking screen; the session is
	// kept and the check can be retried.
	profileErr string
}

// NewApp wires the root model.
func NewApp(deps Deps) *App {
	a := &App{
		client:      deps.Client,
		machine:     deps.Machine,
		dir:         deps.Directory,
		deals:       deps.Deals,
		log:         deps.Logger,
		appName:     deps.AppName,
		defaultRole: deps.DefaultRole,
		screen:      screenLogin,
	}
	a.login = newLoginModel(deps.RememberedUsername)
	a.register = newRegisterModel()
	a.joinOrg = newJoinOrgModel()
	a.dashboard = newDashboardModel()
	return a
}

func (a *App) Init() tea.Cmd {
	// A persisted session skips the login form and goes straight to the
	// profile check.
	sess, err := a.client.Restore()
	if err == nil && sess.Authenticated() {
		return a.startProfileCheck()
	}
	return a.login.init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case profileCheckedMsg:
		if msg.seq != a.seq {
			return a, nil
		}
		return a.routeAfterProfileCheck(msg)
	}

	switch a.screen {
	case screenLogin:
		return a.updateLogin(msg)
	case screenRegister:
		return a.updateRegister(msg)
	case screenChecking:
		return a.updateChecking(msg)
	case screenJoinOrg:
		return a.updateJoinOrg(msg)
	case screenDashboard:
		return a.updateDashboard(msg)
	}
	return a, nil
}

func (a *App) View() string {
	var body string
	switch a.screen {
	case screenLogin:
		body = a.login.view(a.appName, a.notice)
	case screenRegister:
		body = a.register.view()
	case screenChecking:
		if a.profileErr != "" {
			body = errorStyle.Render(a.profileErr) + "\n" +
				helpStyle.Render("r: retry · ctrl+l: log out · ctrl+c: quit")
		} else {
			body = subtitleStyle.Render("Checking your profile...")
		}
	case screenJoinOrg:
		body = a.joinOrgView()
	case screenDashboard:
		body = a.dashboard.view(a.machine.User())
	}

	box := boxStyle.Render(body)
	if a.width == 0 {
		return box
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
}

// updateChecking only reacts once the profile check has failed: retry or
// log out.
func (a *App) updateChecking(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || a.profileErr == "" {
		return a, nil
	}
	switch key.String() {
	case "r":
		return a, a.startProfileCheck()
	case "ctrl+l":
		return a.logout()
	}
	return a, nil
}

// startProfileCheck moves to the checking screen and runs Begin in the
// background.
func (a *App) startProfileCheck() tea.Cmd {
	a.screen = screenChecking
	a.profileErr = ""
	a.seq++
	seq := a.seq

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		state, err := a.machine.Begin(ctx)
		return profileCheckedMsg{seq: seq, state: state, err: err}
	}
}

// routeAfterProfileCheck lands on the screen the state machine dictates.
func (a *App) routeAfterProfileCheck(msg profileCheckedMsg) (tea.Model, tea.Cmd) {
	switch msg.state {
	case onboarding.StateAuthorized:
		return a.gotoDashboard()
	case onboarding.StateAwaitingOrgCode:
		return a.gotoJoinOrg()
	case onboarding.StateUnauthenticated:
		return a.gotoLogin("Your session has expired. Please sign in again.")
	default:
		// ProfileError: the session is still valid, so it is kept; the
		// user can retry the check or log out explicitly.
		a.log.Error().Err(msg.err).Msg("profile check failed")
		a.profileErr = "Could not load your profile. " + messageFor(msg.err)
		return a, nil
	}
}

func (a *App) gotoLogin(notice string) (tea.Model, tea.Cmd) {
	if notice != "" {
		_ = a.machine.Logout()
	}
	a.notice = notice
	a.screen = screenLogin
	a.seq++
	a.login = newLoginModel(a.login.rememberedUsername())
	return a, a.login.init()
}

func (a *App) gotoRegister() (tea.Model, tea.Cmd) {
	a.notice = ""
	a.screen = screenRegister
	a.seq++
	a.register = newRegisterModel()
	return a, a.register.init()
}

func (a *App) gotoJoinOrg() (tea.Model, tea.Cmd) {
	a.screen = screenJoinOrg
	a.seq++
	a.joinOrg = newJoinOrgModel()
	return a, a.joinOrg.init()
}

func (a *App) gotoDashboard() (tea.Model, tea.Cmd) {
	a.screen = screenDashboard
	a.seq++
	a.dashboard = newDashboardModel()
	return a, a.loadDealsCmd()
}

// logout is shared by every screen's logout hotkey.
func (a *App) logout() (tea.Model, tea.Cmd) {
	if err := a.machine.Logout(); err != nil {
		a.log.Error().Err(err).Msg("logout failed")
	}
	return a.gotoLogin("")
}
