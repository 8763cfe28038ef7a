package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/Alias1177/nicempc/internal/analyze"
	"github.com/Alias1177/nicempc/internal/model"
)

// Client wraps the OpenAI API client and implements analyze.Synthesizer
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// ClientOptions holds options for creating a new OpenAI client
type ClientOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// подряд идущих ошибок до размыкания
	MaxFailures uint32
	OpenTimeout time.Duration
}

// NewClient creates a new OpenAI client
func NewClient(opts ClientOptions) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 3
	}
	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = time.Minute
	}

	logger := log.With().Str("component", "openai_client").Logger()
	settings := gobreaker.Settings{
		Name:    "openai",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &Client{
		client:  openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		timeout: opts.Timeout,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// GenerateCompletion sends a prompt to OpenAI and returns the completion
func (c *Client) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("prompt", prompt).Msg("Sending prompt to OpenAI")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.CreateChatCompletion(
			ctx,
			openai.ChatCompletionRequest{
				Model: c.model,
				Messages: []openai.ChatCompletionMessage{
					{
						Role:    openai.ChatMessageRoleSystem,
						Content: systemPrompt,
					},
					{
						Role:    openai.ChatMessageRoleUser,
						Content: prompt,
					},
				},
				ResponseFormat: &openai.ChatCompletionResponseFormat{
					Type: openai.ChatCompletionResponseFormatTypeJSONObject,
				},
				Temperature: 0.2,
			},
		)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("empty choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("OpenAI API error")
		return "", err
	}

	return out.(string), nil
}

// Synthesize asks the model for a labelled verdict on the agent scores
func (c *Client) Synthesize(ctx context.Context, req analyze.SynthesisRequest) (model.Synthesis, error) {
	content, err := c.GenerateCompletion(ctx, FormatScoresPrompt(req))
	if err != nil {
		return model.Synthesis{}, fmt.Errorf("openai completion: %w", err)
	}
	return ParseSynthesis(content)
}

// FormatScoresPrompt creates the user prompt from the aggregate report
func FormatScoresPrompt(req analyze.SynthesisRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Ticker: %s\nLast close: %g\n\nAgent scores (0-100, 50 = neutral):\n", req.Ticker, req.LastClose)
	for i, r := range req.Aggregate.Results {
		fmt.Fprintf(&sb, "%d. %s: %.1f (%s)\n", i+1, r.Agent, r.Score, r.Detail)
	}
	fmt.Fprintf(&sb, "\nWeighted score: %.1f\nConfidence: %.1f\nTier: %s\n",
		req.Aggregate.WeightedScore, req.Aggregate.Confidence, req.Tier)

	if req.Guard.AllPassed {
		sb.WriteString("Risk guard: all phases passed\n")
	} else if n := len(req.Guard.Phases); n > 0 {
		failed := req.Guard.Phases[n-1]
		fmt.Fprintf(&sb, "Risk guard: FAILED at %s (%s)\n", failed.Name, failed.Reason)
	}
	return sb.String()
}

const systemPrompt = `You are the chief investment officer reviewing five independent scoring agents.
Combine their views into one decision and answer only with JSON:
{"signal": "STRONG" | "STANDARD" | "WAIT", "reasoning": "<two sentences>"}
STRONG: weighted score above 80 and agents agree. STANDARD: weighted score above 60.
WAIT: anything else, or whenever the risk guard failed.`
