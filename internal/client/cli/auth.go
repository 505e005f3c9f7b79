package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authbridge/internal/client/client"
	"github.com/dmitrijs2005/authbridge/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) promptEmail(ctx context.Context) (string, error) {
	prompt := "Enter email"
	if last, err := a.authService.LastEmail(ctx); err == nil && last != "" {
		prompt = fmt.Sprintf("Enter email [%s]", last)
		email, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return "", err
		}
		if email == "" {
			return last, nil
		}
		return email, nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

// Register creates a legacy account, signs in with it and starts the
// migration.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.authService.Register(ctx, email, password, name)
	if err != nil {
		if errors.Is(err, client.ErrConflict) {
			printlnFn("That email is already registered, use login instead.")
		} else {
			printlnFn("Register unsuccessful:", err)
		}
		return err
	}

	a.signedIn(s)
	printlnFn("Success!")
	return a.Migrate(ctx)
}

// Login signs in to the legacy system and starts the migration.
func (a *App) Login(ctx context.Context) error {
	email, err := a.promptEmail(ctx)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.authService.Login(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrUnauthorized):
			printlnFn("Invalid email or password.")
		case errors.Is(err, client.ErrUnavailable):
			printlnFn("Server unavailable, try again later.")
		default:
			printlnFn("Login unsuccessful:", err)
		}
		return err
	}

	a.signedIn(s)
	printlnFn("Login successful")
	return a.Migrate(ctx)
}

// signedIn records s and arms a fresh migration for it.
func (a *App) signedIn(s *client.Session) {
	a.session = s
	if a.newPoller != nil {
		a.poller = a.newPoller()
	}
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		printlnFn("Logout unsuccessful:", err)
		return err
	}
	a.session = nil
	a.poller = nil
	printlnFn("Signed out")
	return nil
}

// Whoami asks the server for the current legacy session.
func (a *App) Whoami(ctx context.Context) error {
	s, err := a.authService.Session(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.session = nil
			printlnFn("Not signed in")
			return nil
		}
		return err
	}
	a.session = s
	printlnFn(fmt.Sprintf("%s (id %s), session expires %s", s.Email, s.UserID, s.Expires.Format("2006-01-02 15:04")))
	return nil
}

// Reset forgets all local state, including completed migrations.
func (a *App) Reset(ctx context.Context) error {
	if err := a.authService.ClearLocalData(ctx); err != nil {
		return err
	}
	printlnFn("Local state cleared")
	return nil
}
