package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/quotex-api/internal/common"
)

const defaultTokenTTL = 12 * time.Hour

// Service authenticates the single operator account and issues access tokens.
type Service struct {
	email     string
	hash      string
	secret    []byte
	tokenTTL  time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	OperatorEmail        string
	OperatorPasswordHash string
	Secret               string
	TokenTTL             time.Duration
	Issuer               string
	Audience             string
	ClockSkew            time.Duration
}

// Token is the result of a successful sign-in.
type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Subject     string    `json:"subject"`
}

// NewService validates cfg and builds a Service.
func NewService(cfg Config) (*Service, error) {
	email := normaliseEmail(cfg.OperatorEmail)
	if email == "" {
		return nil, errors.New("auth: operator email is required")
	}
	hash := strings.TrimSpace(cfg.OperatorPasswordHash)
	if _, _, _, err := argon2id.DecodeHash(hash); err != nil {
		return nil, fmt.Errorf("auth: operator password hash: %w", err)
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "quotex-api"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "quotex-app"
	}
	skew := cfg.ClockSkew
	if skew < 0 {
		skew = 0
	}
	return &Service{
		email:    email,
		hash:     hash,
		secret:   []byte(secret),
		tokenTTL: ttl,
		now:      time.Now,
		signer:   jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: skew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: skew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func normaliseEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func invalidCredentials() error {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}

// IssueToken checks the operator credentials and signs an access token.
func (s *Service) IssueToken(_ context.Context, email, password string) (Token, error) {
	if password == "" {
		return Token{}, invalidCredentials()
	}
	emailOK := subtle.ConstantTimeCompare([]byte(normaliseEmail(email)), []byte(s.email)) == 1
	match, err := argon2id.ComparePasswordAndHash(password, s.hash)
	if err != nil {
		return Token{}, fmt.Errorf("auth: compare password: %w", err)
	}
	if !emailOK || !match {
		return Token{}, invalidCredentials()
	}
	signed, expiresAt, err := s.signAccessToken(s.email)
	if err != nil {
		return Token{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt, Subject: s.email}, nil
}

// ParseAccessToken validates an access token and returns its subject.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := tokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func tokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	sigs := message.Signatures()
	if len(sigs) != 1 {
		return "", fmt.Errorf("auth: expected one signature, got %d", len(sigs))
	}
	headers := sigs[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	switch alg {
	case "":
		return "", errors.New("auth: token missing algorithm")
	case jwa.NoSignature:
		return "", errors.New("auth: token uses none algorithm")
	}
	return alg, nil
}

func (s *Service) signAccessToken(subject string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	token, err := jwt.NewBuilder().
		Subject(subject).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// HashPassword produces an argon2id hash suitable for
// AUTH_OPERATOR_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 10 {
		return "", errors.New("auth: password must be at least 10 characters")
	}
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}
