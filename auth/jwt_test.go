package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndParseToken(t *testing.T) {
	tok, err := GenerateToken(42, secret, time.Hour)
	require.NoError(t, err)

	id, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseTokenRejects(t *testing.T) {
	expired, _ := GenerateToken(42, secret, -time.Minute)
	wrongKey, _ := GenerateToken(42, []byte("other"), time.Hour)
	noUser, _ := GenerateToken(0, secret, time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1}).SignedString(secret)
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           1,
	}).SignedString(secret)

	cases := map[string]string{
		"expired":   expired,
		"wrong key": wrongKey,
		"no user":   noUser,
		"no expiry": noExpiry,
		"wrong alg": hs512,
		"garbage":   "not-a-jwt",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tok, secret)
			assert.True(t, IsUnauthorized(err), "expected unauthorized, got %v", err)
		})
	}
}

func TestMiddleware(t *testing.T) {
	handler := Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Error("user id missing from context")
		}
		_, _ = w.Write([]byte(strconv.FormatInt(id, 10)))
	}))

	valid, _ := GenerateToken(7, secret, time.Hour)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/notifications/token/update/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "7", rr.Body.String())
			} else {
				assert.Contains(t, rr.Body.String(), `"error"`)
			}
		})
	}
}
