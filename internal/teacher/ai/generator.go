// Package ai wraps the remote generative text API used for question drafts.
// The generator is best-effort: bounded retries, strict validation, and
// nothing reaches the content store unvalidated.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/codequest-edu/shellquest/internal/content"
)

// Config holds connection details for the generator service.
type Config struct {
	GeneratorURL string
	GeneratorKey string
	Timeout      time.Duration
	MaxRetries   int
}

// Generator calls the remote service.
type Generator struct {
	httpClient  *http.Client
	config      Config
	logger      zerolog.Logger
	generateURL string
}

// NewGenerator constructs an AI question generator client.
func NewGenerator(cfg Config, logger zerolog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	base := strings.TrimSuffix(cfg.GeneratorURL, "/")

	return &Generator{
		httpClient:  &http.Client{Timeout: timeout},
		config:      cfg,
		logger:      logger.With().Str("component", "ai_generator").Logger(),
		generateURL: base + "/generate",
	}
}

// Request describes the questions the teacher asked for.
type Request struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty,omitempty"`
	Count      int    `json:"count"`
}

type generatorResponse struct {
	Questions []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Prompt          string   `json:"prompt"`
	Options         []string `json:"options"`
	Answer          string   `json:"answer"`
	FeedbackCorrect string   `json:"feedback_correct,omitempty"`
	FeedbackWrong   string   `json:"feedback_wrong,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	Difficulty      string   `json:"difficulty,omitempty"`
}

// Generate requests question drafts and validates every one before handing
// them back. Ids are left zero; the portal assigns them on save.
func (g *Generator) Generate(ctx context.Context, req Request) ([]content.Question, error) {
	if g.config.GeneratorURL == "" {
		return nil, fmt.Errorf("generator endpoint not configured")
	}

	var lastErr error
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		questions, err := g.generateOnce(ctx, req)
		if err == nil {
			return questions, nil
		}
		lastErr = err
		g.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("generation attempt failed")
	}
	return nil, fmt.Errorf("generate questions: %w", lastErr)
}

func (g *Generator) generateOnce(ctx context.Context, req Request) ([]content.Question, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.generateURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.GeneratorKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.GeneratorKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var genResp generatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decode generator payload: %w", err)
	}
	if len(genResp.Questions) == 0 {
		return nil, fmt.Errorf("generator returned empty question set")
	}

	questions := make([]content.Question, 0, len(genResp.Questions))
	for i, raw := range genResp.Questions {
		q, err := validateQuestion(raw)
		if err != nil {
			return nil, fmt.Errorf("generated question %d rejected: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// validateQuestion enforces the content rules on untrusted generator output.
func validateQuestion(raw rawQuestion) (content.Question, error) {
	if strings.TrimSpace(raw.Prompt) == "" {
		return content.Question{}, fmt.Errorf("empty prompt")
	}
	if len(raw.Options) < 2 || len(raw.Options) > 6 {
		return content.Question{}, fmt.Errorf("%d options, want 2-6", len(raw.Options))
	}

	options := make([]content.Option, len(raw.Options))
	answer := strings.ToUpper(strings.TrimSpace(raw.Answer))
	answerOK := false
	seen := make(map[string]bool, len(raw.Options))
	for i, rawOpt := range raw.Options {
		opt, err := content.ParseOption(rawOpt)
		if err != nil {
			return content.Question{}, err
		}
		if seen[opt.Tag] {
			return content.Question{}, fmt.Errorf("repeated option tag %s", opt.Tag)
		}
		seen[opt.Tag] = true
		options[i] = opt
		if opt.Tag == answer {
			answerOK = true
		}
	}
	if !answerOK {
		return content.Question{}, fmt.Errorf("answer %q is not an option tag", raw.Answer)
	}
	if !content.ValidDifficulty(raw.Difficulty) {
		return content.Question{}, fmt.Errorf("unknown difficulty %q", raw.Difficulty)
	}

	return content.Question{
		Prompt:          strings.TrimSpace(raw.Prompt),
		Options:         options,
		Answer:          answer,
		FeedbackCorrect: raw.FeedbackCorrect,
		FeedbackWrong:   raw.FeedbackWrong,
		Keywords:        raw.Keywords,
		Difficulty:      raw.Difficulty,
	}, nil
}
