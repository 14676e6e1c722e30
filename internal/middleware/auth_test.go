package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"draws-api/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "test")
	require.NoError(t, err)
	return log
}

func signOperatorToken(t *testing.T, claims OperatorClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func operatorClaims(subject string) OperatorClaims {
	return OperatorClaims{
		Role: "draws-admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestOperatorAuth_ValidToken(t *testing.T) {
	var captured *Operator
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = OperatorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := OperatorAuth(testSecret, testLogger(t))(next)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/draws/draw-1/winner", nil)
	req.Header.Set("Authorization", "Bearer "+signOperatorToken(t, operatorClaims("op-7"), testSecret))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "op-7", captured.ID)
	assert.Equal(t, "draws-admin", captured.Role)
}

func TestOperatorAuth_Rejections(t *testing.T) {
	expired := operatorClaims("op-7")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "wrong secret", header: "Bearer " + signOperatorToken(t, operatorClaims("op-7"), "other-secret")},
		{name: "expired token", header: "Bearer " + signOperatorToken(t, expired, testSecret)},
		{name: "no subject", header: "Bearer " + signOperatorToken(t, operatorClaims(""), testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			})
			handler := OperatorAuth(testSecret, testLogger(t))(next)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/draws/draw-1/winner", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, nextCalled, "rejected requests must not reach the handler")
		})
	}
}

func TestOperatorAuth_RejectsNonHMACAlg(t *testing.T) {
	// alg=none tokens must never pass
	token := jwt.NewWithClaims(jwt.SigningMethodNone, operatorClaims("op-7"))
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})
	handler := OperatorAuth(testSecret, testLogger(t))(next)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/draws/draw-1/winner", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOperatorFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, OperatorFromContext(req.Context()))
}

func TestRequestID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := r.Context().Value(RequestIDContextKey).(string)
		assert.NotEmpty(t, id)
	})
	handler := RequestID(testLogger(t))(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
