package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenochat-app/backend/internal/auth"
	"github.com/xenochat-app/backend/internal/middleware"
	"github.com/xenochat-app/backend/internal/models"
	"github.com/xenochat-app/backend/internal/repositories"
	"github.com/xenochat-app/backend/pkg/stream"
)

// AuthHandler handles authentication and account HTTP requests
type AuthHandler struct {
	users    repositories.UserRepository
	sessions *auth.SessionIssuer
	chat     ChatProvider
	assets   AssetUploader
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users repositories.UserRepository, sessions *auth.SessionIssuer, chat ChatProvider, assets AssetUploader) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		chat:     chat,
		assets:   assets,
	}
}

// RegisterAuthRoutes registers authentication-related routes. Routes past
// the session boundary take the auth gate as per-route middleware.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)

	g.POST("/onboarding", h.Onboarding, requireSession)
	g.PUT("/update-profile", h.UpdateProfile, requireSession)
	g.GET("/check", h.Check, requireSession)
}

// Signup registers a new account, issues a session and notifies the chat
// provider of the new identity.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	_, err := h.users.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   string(hashedPassword),
		ProfilePic: "",
	}
	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.syncIdentity(ctx, user)

	token, err := h.sessions.Issue(user.ID.Hex())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}
	auth.SetSessionCookie(c, token)

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"user":    user,
		"message": "User created successfully",
	})
}

// Login authenticates an account by email and password and issues a
// session. The response message never reveals which credential was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := h.sessions.Issue(user.ID.Hex())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	auth.SetSessionCookie(c, token)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    user,
		"message": "Login successful",
	})
}

// Logout clears the session cookie unconditionally.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Logout successful",
	})
}

// Onboarding completes the profile and promotes the account to onboarded.
func (h *AuthHandler) Onboarding(c echo.Context) error {
	user := middleware.UserFromContext(c)

	var req models.OnboardingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	missingFields := []string{}
	if req.Username == "" {
		missingFields = append(missingFields, "username")
	}
	if req.Bio == "" {
		missingFields = append(missingFields, "bio")
	}
	if req.Location == "" {
		missingFields = append(missingFields, "location")
	}
	if len(missingFields) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"success":       false,
			"message":       "All fields are required",
			"missingFields": missingFields,
		})
	}

	ctx := c.Request().Context()
	updated, err := h.users.UpdateProfile(ctx, user.ID, models.ProfileUpdate{
		Username:     req.Username,
		Bio:          req.Bio,
		Location:     req.Location,
		ProfilePic:   req.ProfilePic,
		SetOnboarded: true,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.syncIdentity(ctx, updated)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    updated,
		"message": "Onboarding successful",
	})
}

// UpdateProfile applies a partial profile update. Raw image data in the
// profilePic field is uploaded to the asset host first; that step is
// blocking since the durable URL is needed before persistence.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user := middleware.UserFromContext(c)

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	ctx := c.Request().Context()

	if strings.HasPrefix(req.ProfilePic, "data:") {
		if h.assets == nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload profile picture")
		}
		url, err := h.assets.UploadImage(ctx, req.ProfilePic)
		if err != nil {
			log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("profile picture upload failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload profile picture")
		}
		req.ProfilePic = url
	}

	updated, err := h.users.UpdateProfile(ctx, user.ID, models.ProfileUpdate{
		Username:   req.Username,
		Bio:        req.Bio,
		Location:   req.Location,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.syncIdentity(ctx, updated)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    updated,
	})
}

// Check returns the authenticated user.
func (h *AuthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    middleware.UserFromContext(c),
	})
}

// syncIdentity pushes the user's identity to the chat provider. Failures
// are logged and swallowed; account operations stay usable when the
// provider is degraded.
func (h *AuthHandler) syncIdentity(ctx context.Context, user *models.User) {
	if h.chat == nil {
		return
	}
	err := h.chat.UpsertIdentity(ctx, stream.Identity{
		ID:    user.ID.Hex(),
		Name:  user.Username,
		Image: user.ProfilePic,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("chat identity sync failed")
	}
}
