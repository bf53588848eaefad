// Package gemini adapts a Gemini model on Vertex AI to generation.Generator.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/auth/credentials"
	"cloud.google.com/go/auth/httptransport"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrEmptyReply indicates the model returned no text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// ContentGenerator is the subset of genai.Models used by the client.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientConfig holds configuration for the Gemini client.
type ClientConfig struct {
	// Models generates content (required). Use genai.Client.Models.
	Models ContentGenerator

	// Model is the model name (default: gemini-1.5-flash).
	Model string

	// Temperature overrides the model's sampling temperature when set.
	Temperature *float32

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client sends prompts to a Gemini model.
type Client struct {
	models      ContentGenerator
	model       string
	temperature *float32
	logger      zerolog.Logger
}

// NewClient creates a new Gemini client.
func NewClient(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		models:      cfg.Models,
		model:       model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// NewVertexClient builds a genai client on the Vertex AI backend.
// Credentials come from Application Default Credentials; base, when set,
// carries the authenticated requests (the circuit-breaking transport in
// production).
func NewVertexClient(ctx context.Context, project, location string, base http.RoundTripper) (*genai.Client, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes: []string{cloudPlatformScope},
	})
	if err != nil {
		return nil, fmt.Errorf("detect default credentials: %w", err)
	}

	httpClient, err := httptransport.NewClient(&httptransport.Options{
		Credentials:      creds,
		BaseRoundTripper: base,
		Headers:          http.Header{"X-Goog-User-Project": []string{project}},
	})
	if err != nil {
		return nil, fmt.Errorf("create authenticated transport: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:     genai.BackendVertexAI,
		Project:     project,
		Location:    location,
		Credentials: creds,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex ai client: %w", err)
	}
	return client, nil
}

// Name returns the model name.
func (c *Client) Name() string {
	return c.model
}

// Generate returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var config *genai.GenerateContentConfig
	if c.temperature != nil {
		config = &genai.GenerateContentConfig{Temperature: c.temperature}
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyReply
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("candidates", len(resp.Candidates)).
		Msg("received model reply")

	return text, nil
}
