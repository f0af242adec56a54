package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"labcatalog/internal/domain"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderGate(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/auth-check", nil)
	_, err := HeaderGate{}.Authenticate(r)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	r.Header.Set("X-User-Email", "chem@example.com")
	r.Header.Set("X-User-Role", "Admin")
	p, err := HeaderGate{}.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "chem@example.com", p.Email)
	assert.True(t, p.IsAdmin())
}

func TestJWTGate_RoundTrip(t *testing.T) {
	g := NewJWTGate([]byte("test-secret"), "session")
	token, err := g.Issue(Principal{Email: "a@example.com", Role: "user"}, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: token})
	p, err := g.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, Principal{Email: "a@example.com", Role: "user"}, p)
	assert.False(t, p.IsAdmin())

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	_, err = g.Authenticate(r)
	assert.NoError(t, err)
}

func TestJWTGate_Rejects(t *testing.T) {
	g := NewJWTGate([]byte("test-secret"), "session")
	other := NewJWTGate([]byte("other-secret"), "session")

	forged, err := other.Issue(Principal{Email: "a@example.com", Role: "admin"}, time.Hour)
	require.NoError(t, err)
	expired, err := g.Issue(Principal{Email: "a@example.com", Role: "admin"}, -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{Email: "a@example.com", Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{"forged": forged, "expired": expired, "none": none, "garbage": "abc"} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: "session", Value: tok})
			_, err := g.Authenticate(r)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestNewGate(t *testing.T) {
	g, err := NewGate("", "", "")
	require.NoError(t, err)
	assert.IsType(t, HeaderGate{}, g)

	_, err = NewGate(ModeJWT, "", "session")
	assert.Error(t, err)

	_, err = NewGate("ldap", "", "")
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	_, err := RequireAdmin(context.Background(), "edit")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	ctx := WithPrincipal(context.Background(), Principal{Email: "u@example.com", Role: "user"})
	_, err = RequireAdmin(ctx, "edit")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	ctx = WithPrincipal(context.Background(), System)
	p, err := RequireAdmin(ctx, "edit")
	require.NoError(t, err)
	assert.Equal(t, System, p)
}
