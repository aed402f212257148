package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/onboarding"
	"github.com/gravisales/crm/onboarding/onboardingfakes"
	"github.com/gravisales/crm/session"
	"github.com/gravisales/crm/session/sessionfakes"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newCheckingApp(t *testing.T) (*App, *sessionfakes.FakeStore) {
	t.Helper()

	store := sessionfakes.NewFakeStore()
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	machine, err := onboarding.NewMachine(onboardingfakes.NewFakeDirectory(), store)
	require.NoError(t, err)

	a := NewApp(Deps{
		AppName: "GraviSales",
		Machine: machine,
		Logger:  zerolog.Nop(),
	})
	a.screen = screenChecking
	return a, store
}

func TestFailedProfileCheckKeepsTheSession(t *testing.T) {
	a, store := newCheckingApp(t)

	model, _ := a.Update(profileCheckedMsg{
		seq:   a.seq,
		state: onboarding.StateProfileError,
		err:   &gravibase.APIError{Code: gravibase.CodeServerError, Status: 502},
	})
	app := model.(*App)

	require.Equal(t, screenChecking, app.screen, "the failure stays on the checking screen")
	require.NotEmpty(t, app.profileErr)
	require.Zero(t, store.ClearCalls, "a failed profile check must not destroy the session")

	sess, err := store.Get()
	require.NoError(t, err)
	require.True(t, sess.Authenticated())
}

func TestProfileCheckFailureIsRetryable(t *testing.T) {
	a, _ := newCheckingApp(t)

	model, _ := a.Update(profileCheckedMsg{
		seq:   a.seq,
		state: onboarding.StateProfileError,
		err:   &gravibase.APIError{Code: gravibase.CodeNetworkError},
	})
	app := model.(*App)
	require.NotEmpty(t, app.profileErr)

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	app = model.(*App)
	require.NotNil(t, cmd, "r re-runs the profile check")
	require.Empty(t, app.profileErr)
	require.Equal(t, screenChecking, app.screen)
}

func TestProfileCheckFailureAllowsLogout(t *testing.T) {
	a, store := newCheckingApp(t)

	model, _ := a.Update(profileCheckedMsg{
		seq:   a.seq,
		state: onboarding.StateProfileError,
		err:   &gravibase.APIError{Code: gravibase.CodeServerError, Status: 500},
	})
	app := model.(*App)

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	app = model.(*App)
	require.Equal(t, screenLogin, app.screen)
	require.Equal(t, 1, store.ClearCalls, "logging out from the error is the only way to drop the session")
}
