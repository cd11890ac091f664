package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotex-api/internal/auth"
	"github.com/noah-isme/quotex-api/internal/common"
)

var fastParams = &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newService(t *testing.T) *auth.Service {
	t.Helper()
	hash, err := argon2id.CreateHash("correct horse battery", fastParams)
	require.NoError(t, err)
	svc, err := auth.NewService(auth.Config{
		OperatorEmail:        "Ops@TableX.test",
		OperatorPasswordHash: hash,
		Secret:               "test-secret",
		TokenTTL:             time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsBadConfig(t *testing.T) {
	_, err := auth.NewService(auth.Config{OperatorPasswordHash: "x", Secret: "s"})
	require.Error(t, err)
	_, err = auth.NewService(auth.Config{OperatorEmail: "ops@tablex.test", OperatorPasswordHash: "not-a-hash", Secret: "s"})
	require.Error(t, err)
}

func TestIssueAndParseToken(t *testing.T) {
	svc := newService(t)
	tok, err := svc.IssueToken(context.Background(), " ops@tablex.test ", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, "ops@tablex.test", tok.Subject)

	subject, err := svc.ParseAccessToken(tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "ops@tablex.test", subject)
}

func TestIssueTokenRejectsWrongCredentials(t *testing.T) {
	svc := newService(t)
	for _, tc := range []struct{ email, password string }{
		{"ops@tablex.test", "wrong password"},
		{"someone@tablex.test", "correct horse battery"},
		{"ops@tablex.test", ""},
	} {
		_, err := svc.IssueToken(context.Background(), tc.email, tc.password)
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	svc := newService(t)
	issued := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return issued })
	tok, err := svc.IssueToken(context.Background(), "ops@tablex.test", "correct horse battery")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return issued.Add(2 * time.Hour) })
	_, err = svc.ParseAccessToken(tok.AccessToken)
	require.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	svc := newService(t)
	mw := auth.Middleware{Service: svc, Public: []string{"GET /api/v1/catalog"}}
	var seen string
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/bases", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, seen)

	tok, err := svc.IssueToken(context.Background(), "ops@tablex.test", "correct horse battery")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "ops@tablex.test", seen)
}

func TestTokenHandler(t *testing.T) {
	h := &auth.Handler{Service: newService(t)}
	body := `{"email":"ops@tablex.test","password":"correct horse battery"}`
	rec := httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "accessToken")

	rec = httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"email":"ops@tablex.test"}`)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
