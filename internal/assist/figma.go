package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flemzord/toolgate/internal/security"
)

// DefaultFigmaURL is the Figma REST API root.
const DefaultFigmaURL = "https://api.figma.com"

// FigmaImageDomains are the hosts rendered Figma images are served from.
var FigmaImageDomains = []string{"figma.com", "figmausercontent.com", "amazonaws.com"}

// ErrFigma is returned when the Figma API refuses a render.
var ErrFigma = errors.New("figma render failed")

// maxRedirects matches the net/http default.
const maxRedirects = 10

// URLChecker vets a URL before it is fetched.
type URLChecker interface {
	Check(rawURL string) error
}

// FigmaConfig configures a FigmaClient.
type FigmaConfig struct {
	// BaseURL defaults to DefaultFigmaURL.
	BaseURL string

	// Token is used when a call passes no token of its own.
	Token string

	// ImageFilter vets the image URL returned by the API. Defaults to a
	// URLFilter allowing FigmaImageDomains.
	ImageFilter URLChecker

	// HTTPClient defaults to a client with a 60s timeout.
	HTTPClient *http.Client
}

// FigmaClient renders Figma nodes to PNG through the images API.
type FigmaClient struct {
	base   string
	token  string
	filter URLChecker
	http   *http.Client

	// images fetches rendered images, vetting every redirect hop.
	images *http.Client
}

// NewFigmaClient creates a FigmaClient from cfg.
func NewFigmaClient(cfg FigmaConfig) *FigmaClient {
	c := &FigmaClient{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		token:  cfg.Token,
		filter: cfg.ImageFilter,
		http:   cfg.HTTPClient,
	}
	if c.base == "" {
		c.base = DefaultFigmaURL
	}
	if c.filter == nil {
		c.filter = security.NewURLFilter(FigmaImageDomains...)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
	}
	images := *c.http
	images.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: too many redirects", ErrFigma)
		}
		return c.filter.Check(req.URL.String())
	}
	c.images = &images
	return c
}

type figmaImagesResponse struct {
	Err    *string           `json:"err"`
	Images map[string]string `json:"images"`
}

// RenderNode renders nodeID of fileKey as PNG and downloads it.
func (c *FigmaClient) RenderNode(ctx context.Context, fileKey, nodeID, token string) (Image, error) {
	if token == "" {
		token = c.token
	}
	if fileKey == "" || nodeID == "" {
		return Image{}, fmt.Errorf("%w: file key and node id are required", ErrFigma)
	}
	if token == "" {
		return Image{}, fmt.Errorf("%w: no access token", ErrFigma)
	}

	q := url.Values{"ids": {nodeID}, "format": {"png"}}
	endpoint := c.base + "/v1/images/" + url.PathEscape(fileKey) + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("X-Figma-Token", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrProviderDown, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body figmaImagesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return Image{}, fmt.Errorf("%w: HTTP %d: decoding response: %w", ErrFigma, resp.StatusCode, err)
	}
	if body.Err != nil && *body.Err != "" {
		return Image{}, fmt.Errorf("%w: HTTP %d: %s", ErrFigma, resp.StatusCode, *body.Err)
	}
	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("%w: HTTP %d", ErrFigma, resp.StatusCode)
	}

	imageURL := body.Images[nodeID]
	if imageURL == "" {
		return Image{}, fmt.Errorf("%w: could not retrieve image URL for node %s", ErrFigma, nodeID)
	}
	if err := c.filter.Check(imageURL); err != nil {
		return Image{}, err
	}
	return c.download(ctx, imageURL)
}

func (c *FigmaClient) download(ctx context.Context, imageURL string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Image{}, err
	}
	resp, err := c.images.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrProviderDown, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("%w: image download HTTP %d", ErrFigma, resp.StatusCode)
	}
	return readImage(resp.Body)
}

var _ FigmaRenderer = (*FigmaClient)(nil)
