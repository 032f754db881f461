package members

import (
	"net/url"
	"strings"

	"github.com/nfrund/together/internal/config"
)

// ImageURLs maps profile image ids to URLs.
type ImageURLs struct {
	defaultURL string
	baseURL    string
}

// NewImageURLs builds a resolver from configuration.
func NewImageURLs(cfg config.ImageConfig) *ImageURLs {
	return &ImageURLs{
		defaultURL: cfg.DefaultProfile,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// URL returns the URL of imageID, or the default profile image when the
// member has none.
func (u *ImageURLs) URL(imageID string) string {
	imageID = strings.TrimSpace(imageID)
	if imageID == "" {
		return u.defaultURL
	}
	if strings.HasPrefix(imageID, "http://") || strings.HasPrefix(imageID, "https://") {
		return imageID
	}
	if u.baseURL == "" {
		return "/Image/" + url.PathEscape(imageID)
	}
	joined, err := url.JoinPath(u.baseURL, imageID)
	if err != nil {
		return u.defaultURL
	}
	return joined
}
