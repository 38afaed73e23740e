package stream

import (
	"context"
	"errors"
	"time"

	streamchat "github.com/GetStream/stream-chat-go/v6"
)

// ErrMissingCredentials is returned when the Stream API key or secret is
// not configured.
var ErrMissingCredentials = errors.New("stream: STREAM_API_KEY and STREAM_API_SECRET are required")

// Identity is the slice of a user the chat provider needs to know about.
type Identity struct {
	ID    string
	Name  string
	Image string
}

// Client wraps the Stream Chat API for the two calls this backend makes:
// keeping user identities in sync and minting delegated user tokens. It is
// constructed once at startup and passed to the handlers that need it.
type Client struct {
	api *streamchat.Client
}

// New creates a Stream client, validating the credentials up front.
func New(apiKey, apiSecret string) (*Client, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}

	api, err := streamchat.NewClient(apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

// UpsertIdentity creates or updates the user's identity on the chat
// provider. Callers treat this as best-effort: a failure is theirs to log
// and swallow.
func (c *Client) UpsertIdentity(ctx context.Context, identity Identity) error {
	_, err := c.api.UpsertUser(ctx, &streamchat.User{
		ID:    identity.ID,
		Name:  identity.Name,
		Image: identity.Image,
	})
	return err
}

// CreateUserToken mints a delegated chat token scoped to the given user.
func (c *Client) CreateUserToken(userID string) (string, error) {
	return c.api.CreateToken(userID, time.Time{})
}
