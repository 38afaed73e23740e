package handlers

import (
	"context"

	"github.com/xenochat-app/backend/pkg/stream"
)

// ChatProvider is the slice of the external chat service the handlers use:
// identity sync on account mutations and delegated token minting.
type ChatProvider interface {
	UpsertIdentity(ctx context.Context, identity stream.Identity) error
	CreateUserToken(userID string) (string, error)
}

// AssetUploader turns raw image data into a durable hosted URL.
type AssetUploader interface {
	UploadImage(ctx context.Context, data string) (string, error)
}
