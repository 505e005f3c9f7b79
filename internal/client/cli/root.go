package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	if a.session == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.session.Email)
}

// Root prints the banner and runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to the authbridge CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
