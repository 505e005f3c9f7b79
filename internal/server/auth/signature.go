package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// SignatureIssuer is the iss claim of every signed webhook delivery.
const SignatureIssuer = "Upstash"

// SignatureClaims are carried by the webhook signature JWT. Body is the
// base64url SHA-256 of the request body.
type SignatureClaims struct {
	jwt.RegisteredClaims
	Body string `json:"body"`
}

// Receiver verifies webhook signatures against a current and a next signing
// key, so keys can be rotated without dropping deliveries.
type Receiver struct {
	currentKey []byte
	nextKey    []byte
	leeway     time.Duration
	now        func() time.Time
}

// NewReceiver creates a Receiver for the given key pair.
func NewReceiver(currentKey, nextKey string) *Receiver {
	return &Receiver{
		currentKey: []byte(currentKey),
		nextKey:    []byte(nextKey),
		leeway:     time.Second,
		now:        time.Now,
	}
}

// Verify checks signature for body. When url is non-empty the sub claim
// must equal it. A missing signature yields common.ErrMissingSignature; any
// other failure common.ErrInvalidSignature.
func (r *Receiver) Verify(signature string, body []byte, url string) error {
	if signature == "" {
		return common.ErrMissingSignature
	}

	var lastErr error
	for _, key := range [][]byte{r.currentKey, r.nextKey} {
		if len(key) == 0 {
			continue
		}
		err := r.verifyWithKey(signature, key, body, url)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr == nil {
		return fmt.Errorf("%w: no signing keys configured", common.ErrInvalidSignature)
	}
	return fmt.Errorf("%w: %v", common.ErrInvalidSignature, lastErr)
}

func (r *Receiver) verifyWithKey(signature string, key, body []byte, url string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(SignatureIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(r.leeway),
		jwt.WithTimeFunc(r.now),
	}
	if url != "" {
		opts = append(opts, jwt.WithSubject(url))
	}

	claims := &SignatureClaims{}
	if _, err := jwt.ParseWithClaims(signature, claims, func(t *jwt.Token) (any, error) { return key, nil }, opts...); err != nil {
		return err
	}

	if strings.TrimRight(claims.Body, "=") != cryptox.BodyDigest(body) {
		return fmt.Errorf("body hash mismatch")
	}
	return nil
}

// Sign produces a signature for body addressed to url, valid for ttl. It is
// the counterpart of Verify and is used by tooling that triggers the webhook
// directly.
func Sign(key string, body []byte, url string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SignatureClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    SignatureIssuer,
			Subject:   url,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Body: cryptox.BodyDigest(body),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}
