package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xenochat-app/backend/internal/middleware"
)

// ChatHandler issues delegated chat provider tokens
type ChatHandler struct {
	chat ChatProvider
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chat ChatProvider) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// RegisterChatRoutes registers chat-related routes on an authenticated
// group.
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.GET("/token", h.GetChatToken)
}

// GetChatToken mints a chat provider token scoped to the caller. Unlike
// identity sync, a failure here is surfaced: the chat UI cannot function
// without the token.
func (h *ChatHandler) GetChatToken(c echo.Context) error {
	user := middleware.UserFromContext(c)

	chatToken, err := h.chat.CreateUserToken(user.ID.Hex())
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("chat token generation failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Chat service unavailable")
	}

	return c.JSON(http.StatusOK, echo.Map{"chatToken": chatToken})
}
