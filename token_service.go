package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// IdentityClaims is the claim set carried by every issued token: exactly one
// email subject claim plus zero or more role claims.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
}

// HasRole reports whether the token asserts the named role.
func (c *IdentityClaims) HasRole(name string) bool {
	for _, role := range c.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// TokenService issues and validates signed bearer tokens. It is a pure
// function of its configuration; it holds no store references.
type TokenService struct {
	signingKey      []byte
	expirationHours int
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
}

// NewTokenService creates a token service from authentication settings.
func NewTokenService(settings AuthenticationSettings, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}

	var audience jwt.ClaimStrings
	if settings.Audience != "" {
		audience = jwt.ClaimStrings{settings.Audience}
	}

	return &TokenService{
		signingKey:      []byte(settings.Secret),
		expirationHours: settings.ExpirationHours,
		issuer:          settings.Issuer,
		audience:        audience,
		logger:          logger,
	}
}

// WithLogger overrides the logger used by the service.
func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// Issue builds a signed token embedding the claims' email as the subject
// and each role as a separate role claim, with issued-at now and expiry
// now plus the configured hours.
func (ts *TokenService) Issue(claims Claims) (string, error) {
	now := time.Now()

	roles := make([]string, 0, len(claims.Roles))
	for _, role := range claims.Roles {
		roles = append(roles, role.Name)
	}

	jwtClaims := &IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   claims.Email,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.expirationHours) * time.Hour)),
		},
		Email: claims.Email,
		Roles: roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Validate verifies signature, issuer, audience, and expiry. It returns
// false for any structurally invalid, tampered, or expired token; it never
// returns an error. This is the trust boundary for authorization decisions.
func (ts *TokenService) Validate(token string) bool {
	_, err := ts.Decode(token)
	return err == nil
}

// Decode parses and verifies a token, returning its claims. The claim set
// round trips: whatever Issue encoded is what Decode returns.
func (ts *TokenService) Decode(token string) (*IdentityClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	parsed, err := jwt.ParseWithClaims(token, &IdentityClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(err, errors.CategoryAuth, "token is expired").
				WithTextCode(TextCodeIncorrectData)
		}
		return nil, errors.Wrap(err, errors.CategoryAuth, "token is not valid").
			WithTextCode(TextCodeIncorrectData)
	}

	claims, ok := parsed.Claims.(*IdentityClaims)
	if !ok || !parsed.Valid {
		ts.logger.Error("token validate could not decode claims")
		return nil, errors.New("token claims could not be decoded", errors.CategoryAuth).
			WithTextCode(TextCodeIncorrectData)
	}

	return claims, nil
}
