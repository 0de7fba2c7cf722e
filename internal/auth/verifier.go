package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"github.com/bim-viewer/bim-viewer-backend/config"
)

var (
	// ErrInvalidToken covers malformed, expired, or wrongly-issued tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrKeySetUnavailable means the user pool's JWKS could not be loaded,
	// so no token can be validated at all.
	ErrKeySetUnavailable = errors.New("token signing keys unavailable")
)

// TokenVerifier turns a bearer credential into a stable subject identifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// CognitoVerifier validates Cognito-issued RS256 ID tokens against the
// user pool's published JWKS.
type CognitoVerifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
}

// NewCognitoVerifier fetches the user pool JWKS and keeps it refreshed in
// the background. A fetch failure is not fatal: the verifier is still
// returned and reports ErrKeySetUnavailable per request until keys load,
// so a Cognito outage at boot does not take the service down with it.
func NewCognitoVerifier(ctx context.Context, cfg *config.CognitoConfig) *CognitoVerifier {
	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", cfg.Region, cfg.UserPoolID)
	jwksURL := issuer + "/.well-known/jwks.json"

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Printf("jwks refresh failed: %v", err)
		},
	})
	if err != nil {
		log.Printf("failed to fetch JWKS from %s: %v", jwksURL, err)
		jwks = nil
	}

	return &CognitoVerifier{
		jwks:     jwks,
		issuer:   issuer,
		audience: cfg.AppClientID,
	}
}

func (v *CognitoVerifier) Verify(ctx context.Context, token string) (string, error) {
	if v.jwks == nil {
		return "", ErrKeySetUnavailable
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}

	if !claims.VerifyAudience(v.audience, true) {
		return "", fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if !claims.VerifyIssuer(v.issuer, true) {
		return "", fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	return claims.Subject, nil
}
