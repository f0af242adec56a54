package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Gate extracts the caller identity from an incoming request.
type Gate interface {
	Authenticate(r *http.Request) (Principal, error)
}

// Gate modes
const (
	ModeHeader = "header"
	ModeJWT    = "jwt"
)

// NewGate builds the gate for mode.
func NewGate(mode, secret, cookieName string) (Gate, error) {
	switch mode {
	case "", ModeHeader:
		return HeaderGate{}, nil
	case ModeJWT:
		if secret == "" {
			return nil, fmt.Errorf("jwt auth mode requires a secret")
		}
		return NewJWTGate([]byte(secret), cookieName), nil
	}
	return nil, fmt.Errorf("unknown auth mode %q", mode)
}

// HeaderGate trusts identity headers set by an authenticating proxy.
type HeaderGate struct{}

func (HeaderGate) Authenticate(r *http.Request) (Principal, error) {
	email := strings.TrimSpace(r.Header.Get("X-User-Email"))
	if email == "" {
		return Principal{}, ErrUnauthenticated
	}
	return Principal{Email: email, Role: strings.TrimSpace(r.Header.Get("X-User-Role"))}, nil
}

// SessionClaims payload of the session cookie
type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// JWTGate verifies an HS256 session token from a cookie or a Bearer header.
type JWTGate struct {
	secret     []byte
	cookieName string
}

func NewJWTGate(secret []byte, cookieName string) *JWTGate {
	if cookieName == "" {
		cookieName = "session"
	}
	return &JWTGate{secret: secret, cookieName: cookieName}
}

func (g *JWTGate) Authenticate(r *http.Request) (Principal, error) {
	raw := ""
	if c, err := r.Cookie(g.cookieName); err == nil {
		raw = c.Value
	} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimPrefix(h, "Bearer ")
	}
	if raw == "" {
		return Principal{}, ErrUnauthenticated
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid || claims.Email == "" {
		return Principal{}, ErrUnauthenticated
	}
	return Principal{Email: claims.Email, Role: claims.Role}, nil
}

// Issue signs a session token for p valid for ttl.
func (g *JWTGate) Issue(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaims{
		Email: p.Email,
		Role:  p.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
			Subject:   p.Email,
		},
	})
	return t.SignedString(g.secret)
}
