package cloudinary

import (
	"context"
	"errors"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrMissingCredentials is returned when the Cloudinary URL is not
// configured.
var ErrMissingCredentials = errors.New("cloudinary: CLOUDINARY_URL is required")

const uploadFolder = "xenochat"

// Client wraps the Cloudinary uploader. Profile pictures submitted as raw
// image data are uploaded here to obtain a durable URL before anything is
// persisted.
type Client struct {
	cld *cld.Cloudinary
}

// New creates a Cloudinary client from a cloudinary:// URL.
func New(url string) (*Client, error) {
	if url == "" {
		return nil, ErrMissingCredentials
	}

	c, err := cld.NewFromURL(url)
	if err != nil {
		return nil, err
	}
	return &Client{cld: c}, nil
}

// UploadImage uploads image data (a data: URI) and returns the hosted
// secure URL.
func (c *Client) UploadImage(ctx context.Context, data string) (string, error) {
	res, err := c.cld.Upload.Upload(ctx, data, uploader.UploadParams{Folder: uploadFolder})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New(res.Error.Message)
	}
	return res.SecureURL, nil
}
