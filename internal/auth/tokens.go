package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// RolesClaim is the private claim listing the caller's roles.
const RolesClaim = "roles"

// DefaultMaxTTL caps the lifetime of back-office tokens.
const DefaultMaxTTL = 12 * time.Hour

// ErrInvalidToken is returned for tokens that fail parsing, signature or claim checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	Subject string
	Roles   []string
}

// Keys signs and verifies the HS256 bearer tokens issued to back-office staff who
// manage pricing settings and tax tables.
type Keys struct {
	Secret   []byte
	Issuer   string
	Audience string
	Skew     time.Duration
	MaxTTL   time.Duration
	Now      func() time.Time
}

// NewKeys builds HS256 keys for the given issuer and audience.
func NewKeys(secret, issuer, audience string) (*Keys, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: secret is required")
	}
	return &Keys{
		Secret:   []byte(secret),
		Issuer:   strings.TrimSpace(issuer),
		Audience: strings.TrimSpace(audience),
		Skew:     30 * time.Second,
		MaxTTL:   DefaultMaxTTL,
		Now:      time.Now,
	}, nil
}

func (k *Keys) now() time.Time {
	if k.Now == nil {
		return time.Now()
	}
	return k.Now()
}

func (k *Keys) maxTTL() time.Duration {
	if k.MaxTTL <= 0 {
		return DefaultMaxTTL
	}
	return k.MaxTTL
}

// Issue signs a token for subject with the given roles.
func (k *Keys) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("auth: subject is required")
	}
	if ttl <= 0 || ttl > k.maxTTL() {
		return "", fmt.Errorf("auth: token lifetime must be within (0, %s]", k.maxTTL())
	}

	now := k.now()
	b := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(ttl))
	if len(roles) > 0 {
		b = b.Claim(RolesClaim, roles)
	}
	if k.Issuer != "" {
		b = b.Issuer(k.Issuer)
	}
	if k.Audience != "" {
		b = b.Audience([]string{k.Audience})
	}
	tok, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, k.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), nil
}

// Verify parses and validates a compact token. Only HS256 signatures made with Secret
// are accepted.
func (k *Keys) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalidToken
	}

	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, k.Secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(k.now)),
		jwt.WithAcceptableSkew(k.Skew),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithValidator(k.lifetimeValidator()),
	}
	if k.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(k.Issuer))
	}
	if k.Audience != "" {
		opts = append(opts, jwt.WithAudience(k.Audience))
	}

	parsed, err := jwt.ParseString(token, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return Claims{Subject: parsed.Subject(), Roles: rolesOf(parsed)}, nil
}

// lifetimeValidator rejects tokens minted with a longer lifetime than Issue allows,
// which catches tokens signed elsewhere with a leaked secret and no sensible expiry.
func (k *Keys) lifetimeValidator() jwt.Validator {
	limit := k.maxTTL() + k.Skew
	return jwt.ValidatorFunc(func(_ context.Context, tok jwt.Token) jwt.ValidationError {
		iat := tok.IssuedAt()
		if iat.IsZero() {
			return jwt.NewValidationError(errors.New(`"iat" claim is required`))
		}
		if tok.Expiration().Sub(iat) > limit {
			return jwt.NewValidationError(fmt.Errorf("token lifetime exceeds %s", k.maxTTL()))
		}
		return nil
	})
}

func rolesOf(tok jwt.Token) []string {
	raw, ok := tok.Get(RolesClaim)
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(v)
	default:
		return nil
	}
}
