package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authbridge/internal/client/migration"
)

// Migrate runs the migration armed by the last sign-in. It runs at most once
// per sign-in.
func (a *App) Migrate(ctx context.Context) error {
	if a.poller == nil {
		printlnFn("Sign in first.")
		return nil
	}

	printlnFn("Migrating account...")
	res, err := a.poller.Run(ctx)
	if errors.Is(err, migration.ErrAlreadyStarted) {
		printlnFn("Migration already ran for this sign-in.")
		return nil
	}
	if err != nil {
		printlnFn("Migration failed:", err)
		return err
	}

	switch res.Outcome {
	case migration.OutcomeRedeemed:
		printlnFn("Migrated. Provider session:", res.SessionID)
	case migration.OutcomeRedeemFailed:
		printlnFn("Ticket issued but could not be redeemed:", res.Err)
	case migration.OutcomeAlreadyMigrated:
		printlnFn("Account already migrated.")
	case migration.OutcomeNotSignedIn:
		printlnFn("Server does not see a legacy session, sign in again.")
	case migration.OutcomeSkipped:
		printlnFn("Migration already completed earlier.")
	}
	return nil
}
