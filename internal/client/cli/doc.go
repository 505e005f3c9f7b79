// Package cli provides the interactive authbridge command-line client.
//
// It signs in to the legacy system and then runs the migration flow: poll the
// server for a one-time ticket, redeem it with the identity provider and
// remember the outcome locally so the flow does not repeat for the same
// account.
//
// Commands: register, login, logout, whoami, migrate, reset, help, exit.
// A successful login or register starts the migration automatically.
package cli
