package main

import (
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/common-nighthawk/go-figure"
	"github.com/gravisales/crm/deals"
	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/internal/config"
	"github.com/gravisales/crm/internal/logging"
	"github.com/gravisales/crm/internal/tui"
	"github.com/gravisales/crm/onboarding"
	"github.com/gravisales/crm/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running gravisales: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	logger, logCloser, err := logging.New(c)
	if err != nil {
		return fmt.Errorf("logging.New: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	store, err := session.NewFileStore(c.GetDataFolder())
	if err != nil {
		return fmt.Errorf("session.NewFileStore: %w", err)
	}

	// The machine is created after the client, but the client needs to tell
	// it about terminal refresh failures; hence the indirection.
	var machine *onboarding.Machine
	client := gravibase.New(
		c.GetBaseURL(),
		c.GetProjectCode(),
		store,
		gravibase.WithLogger(logger),
		gravibase.WithTimeout(time.Duration(c.GetHTTPTimeoutSeconds())*time.Second),
		gravibase.WithOnSessionExpired(func() {
			if machine != nil {
				machine.SessionExpired()
			}
		}),
	)

	directory, err := onboarding.NewGravibaseDirectory(client)
	if err != nil {
		return fmt.Errorf("onboarding.NewGravibaseDirectory: %w", err)
	}
	machine, err = onboarding.NewMachine(directory, store, onboarding.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("onboarding.NewMachine: %w", err)
	}
	dealService, err := deals.NewService(client)
	if err != nil {
		return fmt.Errorf("deals.NewService: %w", err)
	}

	remembered := ""
	if sess, err := client.Restore(); err == nil {
		remembered = sess.Username
	}

	app := tui.NewApp(tui.Deps{
		AppName:            c.GetAppName(),
		Client:             client,
		Machine:            machine,
		Directory:          directory,
		Deals:              dealService,
		Logger:             logger,
		DefaultRole:        c.GetDefaultRole(),
		RememberedUsername: remembered,
	})

	logger.Info().Str("backend", c.GetBaseURL()).Str("project", c.GetProjectCode()).Msg("starting UI")
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("tea.Program.Run: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
