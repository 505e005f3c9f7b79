package provider

import "time"

// EmailAddress is one address attached to an Identity.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// Identity is a user account owned by the identity provider.
type Identity struct {
	ID             string         `json:"id"`
	ExternalID     *string        `json:"external_id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	CreatedAt      int64          `json:"created_at"`
}

// PrimaryEmail returns the first email address, or "".
func (i *Identity) PrimaryEmail() string {
	if len(i.EmailAddresses) == 0 {
		return ""
	}
	return i.EmailAddresses[0].EmailAddress
}

// Created returns CreatedAt (unix milliseconds) as a time.
func (i *Identity) Created() time.Time {
	return time.UnixMilli(i.CreatedAt)
}

// CreateUserParams is the body of a user creation request.
type CreateUserParams struct {
	EmailAddress            []string `json:"email_address,omitempty"`
	Password                string   `json:"password,omitempty"`
	PasswordDigest          string   `json:"password_digest,omitempty"`
	PasswordHasher          string   `json:"password_hasher,omitempty"`
	SkipPasswordChecks      bool     `json:"skip_password_checks,omitempty"`
	SkipPasswordRequirement bool     `json:"skip_password_requirement,omitempty"`
	ExternalID              string   `json:"external_id,omitempty"`
}

// SignInToken is a one-time ticket that establishes a session for UserID
// when redeemed.
type SignInToken struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

type signInTokenRequest struct {
	UserID           string `json:"user_id"`
	ExpiresInSeconds int    `json:"expires_in_seconds,omitempty"`
}
