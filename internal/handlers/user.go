package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenochat-app/backend/internal/middleware"
	"github.com/xenochat-app/backend/internal/models"
	"github.com/xenochat-app/backend/internal/repositories"
)

// recommendationLimit caps the recommendation page size.
const recommendationLimit = 5

// UserHandler handles the friend graph HTTP requests
type UserHandler struct {
	users    repositories.UserRepository
	requests repositories.FriendRequestRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users repositories.UserRepository, requests repositories.FriendRequestRepository) *UserHandler {
	return &UserHandler{users: users, requests: requests}
}

// RegisterUserRoutes registers the friend graph routes on an
// authenticated group.
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("", h.GetRecommendedUsers)
	g.GET("/friends", h.GetMyFriends)
	g.GET("/friend-requests", h.GetFriendRequests)
	g.POST("/friend-request/:id", h.SendFriendRequest)
	g.PUT("/friend-request/:id/accept", h.AcceptFriendRequest)
	g.GET("/outgoing-friend-requests", h.GetOutgoingFriendRequests)
}

// GetRecommendedUsers returns onboarded users who are neither the caller
// nor already friends with them.
func (h *UserHandler) GetRecommendedUsers(c echo.Context) error {
	user := middleware.UserFromContext(c)

	recommended, err := h.users.GetRecommended(c.Request().Context(), user.ID, user.Friends, recommendationLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, recommended)
}

// GetMyFriends resolves the caller's friend set to public fields.
func (h *UserHandler) GetMyFriends(c echo.Context) error {
	user := middleware.UserFromContext(c)

	friends, err := h.users.GetUsersByIDs(c.Request().Context(), user.Friends)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, friends)
}

// SendFriendRequest creates a pending friend request toward the user in
// the path. At most one request may exist per pair, in either direction,
// any status.
func (h *UserHandler) SendFriendRequest(c echo.Context) error {
	user := middleware.UserFromContext(c)

	recipientID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	if recipientID == user.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot send a friend request to yourself")
	}

	ctx := c.Request().Context()

	recipient, err := h.users.GetUserByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Recipient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if recipient.HasFriend(user.ID) {
		return echo.NewHTTPError(http.StatusConflict, "You are already friends with this user")
	}

	_, err = h.requests.FindBetween(ctx, user.ID, recipientID)
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "A friend request already exists between you and this user")
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	friendRequest := &models.FriendRequest{
		Sender:    user.ID,
		Recipient: recipientID,
	}
	if err := h.requests.Create(ctx, friendRequest); err != nil {
		// The unique pair index closes the pre-check race.
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "A friend request already exists between you and this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, friendRequest)
}

// AcceptFriendRequest transitions a request to accepted and adds each user
// to the other's friend set. Only the recipient may accept. The friend-set
// mutation is idempotent, so repeated or concurrent accepts leave both
// sets unchanged past the first.
func (h *UserHandler) AcceptFriendRequest(c echo.Context) error {
	user := middleware.UserFromContext(c)

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID")
	}

	ctx := c.Request().Context()

	friendRequest, err := h.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Friend request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if friendRequest.Recipient != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not the recipient of this friend request")
	}

	if err := h.requests.MarkAccepted(ctx, friendRequest.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Friend request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.users.AddFriend(ctx, friendRequest.Sender, friendRequest.Recipient); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.users.AddFriend(ctx, friendRequest.Recipient, friendRequest.Sender); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Friend request accepted",
	})
}

// GetFriendRequests returns the caller's incoming pending requests and the
// requests they have accepted, with the other party resolved.
func (h *UserHandler) GetFriendRequests(c echo.Context) error {
	user := middleware.UserFromContext(c)
	ctx := c.Request().Context()

	incoming, err := h.requests.ListByRecipient(ctx, user.ID, models.StatusPending)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	accepted, err := h.requests.ListByRecipient(ctx, user.ID, models.StatusAccepted)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	incomingPopulated, err := h.populate(ctx, incoming)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	acceptedPopulated, err := h.populate(ctx, accepted)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"incomingRequests": incomingPopulated,
		"acceptedRequests": acceptedPopulated,
	})
}

// GetOutgoingFriendRequests returns the caller's pending sent requests.
func (h *UserHandler) GetOutgoingFriendRequests(c echo.Context) error {
	user := middleware.UserFromContext(c)
	ctx := c.Request().Context()

	outgoing, err := h.requests.ListBySender(ctx, user.ID, models.StatusPending)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	populated, err := h.populate(ctx, outgoing)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, populated)
}

// populate resolves both parties of each request to their public fields
// with a single batched lookup.
func (h *UserHandler) populate(ctx context.Context, requests []models.FriendRequest) ([]models.PopulatedFriendRequest, error) {
	seen := map[primitive.ObjectID]bool{}
	ids := []primitive.ObjectID{}
	for _, r := range requests {
		for _, id := range []primitive.ObjectID{r.Sender, r.Recipient} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	users, err := h.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := map[primitive.ObjectID]models.PublicUser{}
	for _, u := range users {
		byID[u.ID] = u
	}

	populated := []models.PopulatedFriendRequest{}
	for _, r := range requests {
		populated = append(populated, models.PopulatedFriendRequest{
			ID:        r.ID,
			Sender:    byID[r.Sender],
			Recipient: byID[r.Recipient],
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return populated, nil
}
