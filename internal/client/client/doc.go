// Package client contains the CLI's connection to the authbridge server.
//
// The Client interface is implemented by HTTPClient, which keeps the legacy
// session cookie in a cookie jar and maps responses to sentinel errors
// (ErrUnavailable, ErrUnauthorized, ErrConflict) or a *StatusError.
//
// Migration requests return a MigrateResult: a one-time ticket on 201, or the
// "already handled" sentinel on 222 with the server's message.
//
// InitDatabase and RunMigrations bootstrap the local SQLite state database.
package client
