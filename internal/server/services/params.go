package services

import (
	"github.com/dmitrijs2005/authbridge/internal/cryptox"
	"github.com/dmitrijs2005/authbridge/internal/server/provider"
)

const passwordHasherBcrypt = "bcrypt"

// createParams builds the provider user for a legacy account. Password checks
// and requirements are skipped so legacy passwords that the provider would
// reject, or missing ones, never block the import. A bcrypt digest is handed
// over as a digest so the user keeps the same password.
func createParams(email string, password *string, externalID string) provider.CreateUserParams {
	p := provider.CreateUserParams{
		EmailAddress:            []string{email},
		SkipPasswordChecks:      true,
		SkipPasswordRequirement: true,
		ExternalID:              externalID,
	}
	if password != nil && *password != "" {
		if cryptox.IsBcryptHash(*password) {
			p.PasswordDigest = *password
			p.PasswordHasher = passwordHasherBcrypt
		} else {
			p.Password = *password
		}
	}
	return p
}
