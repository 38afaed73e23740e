package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenochat-app/backend/internal/auth"
	"github.com/xenochat-app/backend/internal/models"
	"github.com/xenochat-app/backend/internal/repositories"
)

const userContextKey = "user"

// SessionAuth guards protected routes: it extracts the session cookie,
// verifies the token, resolves the user from the store and injects it into
// the request context. Any failure ends the request with 401.
func SessionAuth(sessions *auth.SessionIssuer, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - No token provided")
			}

			userID, err := sessions.Verify(cookie.Value)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - Invalid token")
			}

			objID, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - Invalid token")
			}

			// The user may have been deleted after the token was issued.
			user, err := users.GetUserByID(c.Request().Context(), objID)
			if err != nil {
				if err == repositories.ErrNotFound {
					return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - User not found")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// UserFromContext returns the authenticated user injected by SessionAuth,
// or nil on unprotected routes.
func UserFromContext(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}
