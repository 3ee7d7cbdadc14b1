// Package auth issues and verifies the bearer credentials handed to browser clients.
//
// A credential is an HS256 JWT whose claims embed the Spotify access and refresh tokens
// of the user it was issued for. Credentials are never mutated: [Authority.Refresh]
// always signs a new one.
//
// Verification comes in two flavours. [Authority.Verify] applies the expiry check and is
// used by every endpoint. [Authority.VerifyIgnoringExpiry] skips it so that the refresh
// endpoint can recover the embedded refresh token from an expired credential.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// DefaultTTL is the credential lifetime used when none is configured.
const DefaultTTL = 2 * time.Hour

// Claims are the JWT claims carried by a credential.
type Claims struct {
	DisplayName  string `json:"display_name"`
	SpotifyToken string `json:"spotify_token"`
	RefreshToken string `json:"refresh_token"`
	jwt.RegisteredClaims
}

// Identity is the input to [Authority.Issue].
type Identity struct {
	UserID       string
	DisplayName  string
	AccessToken  string
	RefreshToken string
}

// Identity returns the identity embedded in the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:       c.Subject,
		DisplayName:  c.DisplayName,
		AccessToken:  c.SpotifyToken,
		RefreshToken: c.RefreshToken,
	}
}

// Refresher exchanges an upstream refresh token for a new upstream token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Authority signs, verifies and refreshes credentials.
type Authority struct {
	secret    []byte
	ttl       time.Duration
	refresher Refresher
	now       func() time.Time
}

// Option configures an [Authority].
type Option func(*Authority)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

// WithTTL overrides the credential lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authority) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// NewAuthority creates an [Authority] signing with secret. refresher may be nil when
// [Authority.Refresh] is not used.
func NewAuthority(secret string, refresher Refresher, opts ...Option) (*Authority, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret is empty", shared.ErrInvalidConfig)
	}

	a := &Authority{
		secret:    []byte(secret),
		ttl:       DefaultTTL,
		refresher: refresher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// TTL returns the lifetime of issued credentials.
func (a *Authority) TTL() time.Duration {
	return a.ttl
}

// Issue signs a new credential for id.
func (a *Authority) Issue(id Identity) (string, error) {
	if id.UserID == "" {
		return "", fmt.Errorf("%w: subject is required", shared.ErrValidation)
	}

	now := a.now()
	claims := Claims{
		DisplayName:  id.DisplayName,
		SpotifyToken: id.AccessToken,
		RefreshToken: id.RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a credential.
//
// Returns [shared.ErrTokenExpired] past expiry and [shared.ErrTokenInvalid] for anything else.
func (a *Authority) Verify(token string) (*Claims, error) {
	return a.parse(token, jwt.WithExpirationRequired())
}

// VerifyIgnoringExpiry checks only the signature and structure of a credential.
//
// Only the refresh flow should call this.
func (a *Authority) VerifyIgnoringExpiry(token string) (*Claims, error) {
	return a.parse(token, jwt.WithoutClaimsValidation())
}

func (a *Authority) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", shared.ErrTokenInvalid)
	}

	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: please log in again", shared.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", shared.ErrTokenInvalid)
	}

	return claims, nil
}

// Refresh exchanges the upstream refresh token embedded in claims for a new access token
// and issues a new credential for the same user.
//
// The old refresh token is kept when the provider does not rotate it.
func (a *Authority) Refresh(ctx context.Context, claims *Claims) (string, error) {
	if claims == nil || claims.RefreshToken == "" {
		return "", fmt.Errorf("%w: please log in again", shared.ErrNoRefreshToken)
	}
	if a.refresher == nil {
		return "", fmt.Errorf("%w: no refresher configured", shared.ErrRefreshFailed)
	}

	tok, err := a.refresher.Refresh(ctx, claims.RefreshToken)
	if err != nil {
		if errors.Is(err, shared.ErrRefreshFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: provider returned no access token", shared.ErrRefreshFailed)
	}

	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		refreshToken = claims.RefreshToken
	}

	return a.Issue(Identity{
		UserID:       claims.Subject,
		DisplayName:  claims.DisplayName,
		AccessToken:  tok.AccessToken,
		RefreshToken: refreshToken,
	})
}
