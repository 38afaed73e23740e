package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/xenochat-app/backend/internal/models"
)

const (
	// CookieName is the session cookie the browser client carries.
	CookieName = "token"
	// SessionTTL bounds how long an issued session stays valid.
	SessionTTL = 72 * time.Hour
)

// ErrInvalidToken is returned by Verify for any token that cannot be
// trusted: bad signature, malformed payload, or elapsed expiry.
var ErrInvalidToken = errors.New("invalid session token")

// SessionIssuer creates and verifies stateless session tokens. Tokens are
// HS256 JWTs signed with a process-wide secret; nothing is stored
// server-side.
type SessionIssuer struct {
	secret []byte
}

// NewSessionIssuer creates a SessionIssuer signing with the given secret.
func NewSessionIssuer(secret string) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret)}
}

// Issue produces a signed session token for the given user id, expiring
// SessionTTL from now.
func (s *SessionIssuer) Issue(userID string) (string, error) {
	claims := &models.SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the token's signature and expiry and returns the embedded
// user id. Untrusted input never panics; all failures map to
// ErrInvalidToken.
func (s *SessionIssuer) Verify(tokenString string) (string, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// SetSessionCookie attaches the session token to the response as an
// httpOnly cookie.
func SetSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie unconditionally.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
