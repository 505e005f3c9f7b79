package common

// StatusAlreadyHandled is the non-standard status the migration endpoints
// return when no action is needed: the caller is either already migrated or
// has no legacy session to migrate from.
const StatusAlreadyHandled = 222

// Cookie names shared by the server and the CLI client.
const (
	// LegacySessionCookieName carries the opaque legacy session token.
	LegacySessionCookieName = "authbridge.session-token"

	// ProviderSessionCookieName carries the provider-issued session JWT.
	ProviderSessionCookieName = "__session"
)

// SignatureHeaderName carries the signed JWT on scheduled batch webhooks.
const SignatureHeaderName = "Upstash-Signature"

// NullPassword is stored in the password queue for users without a password.
const NullPassword = "null"

// Bodies of StatusAlreadyHandled responses.
const (
	MsgAlreadyMigrated  = "User already exists"
	MsgNotAuthenticated = "User not signed into legacy auth"
)
