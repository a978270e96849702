package synthesis

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/utils/logging"
)

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
	rules     string
	timeout   time.Duration
}

// Option is a functional option for client configuration
type Option func(*client)

// WithRules replaces the extraction rules placed at the top of the prompt
func WithRules(rules string) Option {
	return func(c *client) {
		if strings.TrimSpace(rules) != "" {
			c.rules = rules
		}
	}
}

// WithTimeout sets the wall-clock ceiling of one synthesis call
func WithTimeout(timeout time.Duration) Option {
	return func(c *client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New creates a synthesis service backed by the given LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
		rules:     DefaultRules,
		timeout:   DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) Synthesize(ctx context.Context, transcript string) (map[string]any, error) {
	if IsTooShort(transcript) {
		logging.From(ctx).Warn("transcript too short for synthesis", "length", utf8.RuneCountInString(transcript))
		return model.InsufficientTranscriptCandidate(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(responseSchema()),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrUnavailable, "failed to create LLM session", goerr.V("cause", err.Error()))
	}

	started := time.Now()
	resp, err := session.GenerateContent(ctx, gollem.Text(buildPrompt(c.rules, transcript)))
	if err != nil {
		return nil, goerr.Wrap(ErrUnavailable, "failed to generate note",
			goerr.V("cause", err.Error()),
			goerr.V("elapsed", time.Since(started).String()))
	}
	if resp == nil || len(resp.Texts) == 0 || strings.TrimSpace(strings.Join(resp.Texts, "")) == "" {
		return nil, goerr.Wrap(ErrUnavailable, "empty response from LLM")
	}

	raw := stripCodeFence(strings.Join(resp.Texts, ""))

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, goerr.Wrap(ErrMalformed, "failed to parse LLM response",
			goerr.V("cause", err.Error()),
			goerr.V("response_length", len(raw)))
	}

	candidate, ok := decoded.(map[string]any)
	if !ok {
		return nil, goerr.Wrap(ErrMalformed, "LLM response is not a JSON object",
			goerr.V("response_length", len(raw)))
	}

	logging.From(ctx).Debug("note synthesized", "elapsed", time.Since(started))
	return candidate, nil
}

// IsTooShort reports whether the trimmed transcript has fewer characters than
// MinTranscriptLength. Such transcripts get the insufficient-information note
// without an LLM call.
func IsTooShort(transcript string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(transcript)) < MinTranscriptLength
}

// stripCodeFence removes a surrounding ```json ... ``` block if present
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
