package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func buildToken(t *testing.T, mutate func(*jwt.Builder) *jwt.Builder) jwt.Token {
	t.Helper()
	now := time.Now()
	b := jwt.NewBuilder().
		Issuer("issuer").
		Audience([]string{"aud"}).
		Subject("ops@tablex.test").
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Minute))
	if mutate != nil {
		b = mutate(b)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	return tok
}

func TestTokenValidator(t *testing.T) {
	now := time.Now()
	validator := TokenValidator{Issuer: "issuer", Audience: "aud", ClockSkew: time.Second, Algorithm: jwa.HS256}

	require.NoError(t, validator.Validate(buildToken(t, nil), jwa.HS256, now))

	cases := map[string]struct {
		mutate func(*jwt.Builder) *jwt.Builder
		alg    jwa.SignatureAlgorithm
	}{
		"issuer mismatch": {mutate: func(b *jwt.Builder) *jwt.Builder { return b.Issuer("other") }, alg: jwa.HS256},
		"audience mismatch": {mutate: func(b *jwt.Builder) *jwt.Builder { return b.Audience([]string{"web"}) }, alg: jwa.HS256},
		"expired": {mutate: func(b *jwt.Builder) *jwt.Builder {
			return b.IssuedAt(now.Add(-2 * time.Hour)).NotBefore(now.Add(-2 * time.Hour)).Expiration(now.Add(-time.Minute))
		}, alg: jwa.HS256},
		"not yet valid": {mutate: func(b *jwt.Builder) *jwt.Builder {
			return b.NotBefore(now.Add(5 * time.Minute)).Expiration(now.Add(10 * time.Minute))
		}, alg: jwa.HS256},
		"missing subject":    {mutate: func(b *jwt.Builder) *jwt.Builder { return b.Subject("") }, alg: jwa.HS256},
		"algorithm mismatch": {alg: jwa.RS256},
		"missing algorithm":  {alg: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, validator.Validate(buildToken(t, tc.mutate), tc.alg, now))
		})
	}
}
