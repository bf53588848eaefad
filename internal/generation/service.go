package generation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/geocycle/geocycle/internal/provider"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// ServiceConfig holds configuration for the generation service.
type ServiceConfig struct {
	// Generator is the language model.
	Generator Generator

	// Logger for service operations.
	Logger zerolog.Logger

	// Timeout is the per-call timeout (default: 60s).
	Timeout time.Duration
}

// Service prompts the model and parses its replies.
type Service struct {
	generator Generator
	logger    zerolog.Logger
	timeout   time.Duration
}

// NewService creates a new generation service.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		generator: cfg.Generator,
		logger:    cfg.Logger,
		timeout:   timeout,
	}
}

// Courses asks the model for several courses.
func (s *Service) Courses(ctx context.Context, in PromptInput) ([]Candidate, error) {
	in.Shape = ShapeCourses
	reply, err := s.generate(ctx, in)
	if err != nil {
		return nil, err
	}
	return ParseCandidates(reply)
}

// Course asks the model for a single course.
func (s *Service) Course(ctx context.Context, in PromptInput) (*Candidate, error) {
	in.Shape = ShapeCourse
	reply, err := s.generate(ctx, in)
	if err != nil {
		return nil, err
	}
	return ParseCandidate(reply)
}

// Shop asks the model for a single gyoza shop.
func (s *Service) Shop(ctx context.Context, in PromptInput) (*Shop, error) {
	in.Shape = ShapeShop
	reply, err := s.generate(ctx, in)
	if err != nil {
		return nil, err
	}
	return ParseShop(reply)
}

func (s *Service) generate(ctx context.Context, in PromptInput) (string, error) {
	prompt := BuildPrompt(in)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.generator.Generate(callCtx, prompt)
	if err != nil {
		s.logger.Error().Err(err).
			Str("model", s.generator.Name()).
			Dur("duration", time.Since(start)).
			Msg("model generation failed")
		return "", provider.Classify("generate", err)
	}

	s.logger.Debug().
		Str("model", s.generator.Name()).
		Int("reply_bytes", len(reply)).
		Dur("duration", time.Since(start)).
		Msg("model replied")

	return reply, nil
}
