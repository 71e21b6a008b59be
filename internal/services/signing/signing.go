package signing

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// Issuer identifies tokens minted by the backfill uploader
	Issuer = "absolutely-right-backfill"
	// DefaultTTL bounds how long a minted token is accepted
	DefaultTTL = 10 * time.Minute
)

// ErrEmptySecret is returned when signing or verifying without a shared secret
var ErrEmptySecret = errors.New("shared secret is empty")

// Sign mints an HS256 token for the shared secret
func Sign(secret string, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	token, err := jwt.NewBuilder().
		Issuer(Issuer).
		IssuedAt(now).
		Expiration(now.Add(DefaultTTL)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verifier checks tokens minted with the same shared secret
type Verifier struct {
	secret []byte
	clock  jwt.Clock
}

// NewVerifier creates a verifier for secret
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Verifier{secret: []byte(secret), clock: jwt.ClockFunc(time.Now)}, nil
}

// Verify parses and validates a token string
func (v *Verifier) Verify(tokenString string) error {
	_, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(Issuer),
		jwt.WithClock(v.clock),
	)
	if err != nil {
		return fmt.Errorf("failed to parse/verify token: %w", err)
	}
	return nil
}
