// Package auth verifies the credentials the server accepts from outside:
// provider session tokens carried by browsers and signed webhook deliveries.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// ProviderSession is the identity carried by a verified provider session token.
type ProviderSession struct {
	UserID     string
	ExternalID string
	SessionID  string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID  string `json:"sid,omitempty"`
	ExternalID string `json:"userId,omitempty"`
}

// SessionVerifier checks provider session JWTs offline against the
// provider's RS256 public key.
type SessionVerifier struct {
	key    *rsa.PublicKey
	leeway time.Duration
	now    func() time.Time
}

// NewSessionVerifier parses pemKey, a PKIX public key in PEM form. Escaped
// "\n" sequences, as found in single-line environment variables, are
// accepted. An empty pemKey yields a verifier that rejects every token.
func NewSessionVerifier(pemKey string) (*SessionVerifier, error) {
	v := &SessionVerifier{leeway: 5 * time.Second, now: time.Now}
	if strings.TrimSpace(pemKey) == "" {
		return v, nil
	}

	pemKey = strings.ReplaceAll(pemKey, `\n`, "\n")
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse provider jwt key: %w", err)
	}
	v.key = key
	return v, nil
}

// Enabled reports whether a key is configured.
func (v *SessionVerifier) Enabled() bool {
	return v.key != nil
}

// Verify validates token and returns the session it carries. Expired tokens
// yield common.ErrSessionExpired, everything else common.ErrInvalidToken.
func (v *SessionVerifier) Verify(token string) (*ProviderSession, error) {
	if v.key == nil || token == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return v.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	s := &ProviderSession{
		UserID:     claims.Subject,
		ExternalID: claims.ExternalID,
		SessionID:  claims.SessionID,
	}
	if s.ExternalID == "" {
		s.ExternalID = s.UserID
	}
	return s, nil
}

// SessionToken extracts the provider session token from r: the session
// cookie first, then an Authorization bearer header.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(common.ProviderSessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
