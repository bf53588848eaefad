// Package photo fetches place photos from the Google Places photo endpoint.
package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Defaults for ProxyConfig.
const (
	DefaultBaseURL     = "https://maps.googleapis.com"
	DefaultMaxWidth    = 400
	DefaultContentType = "image/jpeg"
	DefaultTimeout     = 10 * time.Second

	// MaxPhotoBytes caps the size of a proxied photo.
	MaxPhotoBytes = 10 << 20

	photoPath = "/maps/api/place/photo"
)

// Sentinel errors for photo fetches.
var (
	// ErrMissingReference indicates the photo reference is empty.
	ErrMissingReference = errors.New("photo reference is required")
	// ErrUpstreamStatus indicates the photo endpoint answered with a non-200 status.
	ErrUpstreamStatus = errors.New("photo fetch failed")
	// ErrPhotoTooLarge indicates the upstream image exceeds the size cap.
	ErrPhotoTooLarge = errors.New("photo exceeds size limit")
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProxyConfig holds configuration for the photo proxy.
type ProxyConfig struct {
	// HTTPClient performs upstream requests (required).
	HTTPClient HTTPDoer

	// APIKey is the Google Maps API key.
	APIKey string

	// BaseURL is the Google Maps API host (default: https://maps.googleapis.com).
	BaseURL string

	// DefaultMaxWidth is used when the caller gives no width (default: 400).
	DefaultMaxWidth int

	// Timeout bounds a single fetch (default: 10s).
	Timeout time.Duration

	// MaxBytes caps the image size (default: MaxPhotoBytes).
	MaxBytes int64

	// Logger for proxy operations.
	Logger zerolog.Logger
}

// Photo is a fetched image.
type Photo struct {
	ContentType string
	Body        []byte
}

// Proxy fetches photos by reference.
type Proxy struct {
	http            HTTPDoer
	apiKey          string
	baseURL         string
	defaultMaxWidth int
	timeout         time.Duration
	maxBytes        int64
	logger          zerolog.Logger
}

// NewProxy creates a new photo proxy.
func NewProxy(cfg ProxyConfig) *Proxy {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	maxWidth := cfg.DefaultMaxWidth
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = MaxPhotoBytes
	}

	return &Proxy{
		http:            cfg.HTTPClient,
		apiKey:          cfg.APIKey,
		baseURL:         baseURL,
		defaultMaxWidth: maxWidth,
		timeout:         timeout,
		maxBytes:        maxBytes,
		logger:          cfg.Logger,
	}
}

// DefaultMaxWidth returns the width used when the caller gives none.
func (p *Proxy) DefaultMaxWidth() int {
	return p.defaultMaxWidth
}

// Fetch downloads the photo for ref. A maxWidth of zero or less uses the default.
func (p *Proxy) Fetch(ctx context.Context, ref string, maxWidth int) (*Photo, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, ErrMissingReference
	}
	if maxWidth <= 0 {
		maxWidth = p.defaultMaxWidth
	}

	q := url.Values{}
	q.Set("maxwidth", strconv.Itoa(maxWidth))
	q.Set("photoreference", ref)
	q.Set("key", p.apiKey)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+photoPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("photo endpoint returned non-200")
		return nil, fmt.Errorf("%w: upstream status %d", ErrUpstreamStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if int64(len(body)) > p.maxBytes {
		p.logger.Warn().
			Int64("limit_bytes", p.maxBytes).
			Msg("photo exceeds size limit")
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPhotoTooLarge, p.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}

	return &Photo{ContentType: contentType, Body: body}, nil
}
