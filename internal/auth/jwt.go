package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"ai-recruiter/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager issues and verifies the HS256 tokens protecting the recruiter
// endpoints. The webhook and realtime endpoints are never token-protected.
type Manager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration

	recruiterEmail    string
	recruiterPassword string
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.RecruiterEmail == "" || cfg.RecruiterPassword == "" {
		return nil, errors.New("recruiter credentials are required")
	}

	return &Manager{
		secret:            []byte(cfg.JWTSecret),
		issuer:            cfg.JWTIssuer,
		audience:          cfg.JWTAudience,
		accessTTL:         cfg.AccessTokenTTL,
		refreshTTL:        cfg.RefreshTokenTTL,
		recruiterEmail:    cfg.RecruiterEmail,
		recruiterPassword: cfg.RecruiterPassword,
	}, nil
}

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
type Claims struct {
	jwt.RegisteredClaims

	Email     string    `json:"email"`
	TokenType TokenType `json:"token_type"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

var ErrBadCredentials = errors.New("auth: invalid email or password")

// Login validates the recruiter credentials and issues a token pair.
func (m *Manager) Login(now time.Time, email, password string) (TokenPair, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(m.recruiterEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.recruiterPassword)) == 1
	if !emailOK || !passOK {
		return TokenPair{}, ErrBadCredentials
	}
	return m.IssuePair(now, email)
}

func (m *Manager) IssuePair(now time.Time, email string) (TokenPair, error) {
	access, err := m.issue(now, TokenTypeAccess, email, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.issue(now, TokenTypeRefresh, email, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) Verify(tokenString string, expected TokenType, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	validator := jwt.NewValidator(opts...)
	if err := validator.Validate(claims.RegisteredClaims); err != nil {
		return Claims{}, err
	}

	if claims.TokenType != expected {
		return Claims{}, errors.New("token_type mismatch")
	}
	if claims.Email == "" {
		return Claims{}, errors.New("email missing")
	}
	return claims, nil
}

func (m *Manager) issue(now time.Time, tokenType TokenType, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Email:     email,
		TokenType: tokenType,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
