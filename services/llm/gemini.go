package llm

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/feedback"
)

// GeminiName is the provenance recorded on feedback generated by GeminiClient.
const GeminiName = "Gemini API"

var (
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable is not set")

	errEmptyCompletion = errors.New("empty completion")
)

// GeminiClient generates text with Google's Gemini models.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ feedback.Generator = (*GeminiClient)(nil)

// NewGeminiClient fails with ErrMissingAPIKey when no credential is configured.
func NewGeminiClient(ctx context.Context, conf *core.Config) (*GeminiClient, error) {
	if strings.TrimSpace(conf.Gemini.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:  conf.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if conf.Gemini.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: conf.Gemini.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "creating Gemini client")
	}

	return &GeminiClient{
		client:  client,
		model:   conf.Gemini.Model,
		timeout: conf.Gemini.Timeout,
	}, nil
}

func (c *GeminiClient) Name() string {
	return GeminiName
}

// Generate submits prompt as a single user turn and returns the completion text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Wrapf(err, "generating content with %s", c.model)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}
