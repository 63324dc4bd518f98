package generate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/graves/awful-rustdocs/internal/health"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

// OpenAIConfig configures an OpenAI-compatible chat completions endpoint. A local server (ex: LM Studio, llama.cpp, Ollama) works as long as it speaks the same API.
type OpenAIConfig struct {
	BaseURL       string // ex: "http://127.0.0.1:1234/v1". Empty uses the OpenAI default.
	APIKey        string // Literal key, or "$ENV_VAR" to read it from the environment. Falls back to OPENAI_API_KEY.
	Model         string
	Temperature   *float64
	MaxTokens     int // Max completion tokens; 0 leaves it to the server.
	MaxBodyTokens int
	MaxRetries    int // Retries for 429, 5xx, and network errors.
	RetryBackoff  time.Duration
	Function      Template
	Struct        Template
	Log           health.Ctx
}

// OpenAI is a Generator backed by the chat completions API.
type OpenAI struct {
	client openai.Client
	cfg    OpenAIConfig
}

var _ Generator = (*OpenAI)(nil)

// NewOpenAI returns a generator for cfg. Empty templates fall back to the defaults.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("no model configured")
	}
	apiKey := resolveKey(cfg.APIKey)
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("no API key configured for the default OpenAI endpoint")
	}
	if apiKey == "" {
		// Local servers usually ignore the key, but the client requires one.
		apiKey = "local"
	}
	if cfg.Function == (Template{}) {
		cfg.Function = DefaultFunctionTemplate
	}
	if cfg.Struct == (Template{}) {
		cfg.Struct = DefaultStructTemplate
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	return &OpenAI{client: openai.NewClient(opts...), cfg: cfg}, nil
}

func resolveKey(key string) string {
	if env, ok := strings.CutPrefix(key, "$"); ok {
		return os.Getenv(env)
	}
	return key
}

func (o *OpenAI) FunctionDoc(ctx context.Context, req Request) (string, error) {
	return o.complete(ctx, o.cfg.Function, FunctionQuestion(req, o.cfg.MaxBodyTokens), req.Item.Label())
}

func (o *OpenAI) StructDoc(ctx context.Context, req Request) (string, error) {
	return o.complete(ctx, o.cfg.Struct, StructQuestion(req, o.cfg.MaxBodyTokens), req.Item.Label())
}

func (o *OpenAI) complete(ctx context.Context, tmpl Template, question string, symbol string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(tmpl.SystemPrompt),
			openai.UserMessage(tmpl.UserMessage(question)),
		},
	}
	if o.cfg.Temperature != nil {
		params.Temperature = param.NewOpt(*o.cfg.Temperature)
	}
	if o.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(o.cfg.MaxTokens))
	}

	var lastErr error
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := o.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
			o.cfg.Log.Warn("retrying completion", "symbol", symbol, "attempt", attempt, "wait", wait, "err", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		start := time.Now()
		resp, err := o.client.Chat.Completions.New(ctx, params)
		if err == nil {
			if resp == nil || len(resp.Choices) == 0 {
				return "", ErrNoResponse
			}
			text := resp.Choices[0].Message.Content
			if text == "" {
				text = resp.Choices[0].Message.Refusal
			}
			if strings.TrimSpace(text) == "" {
				return "", ErrNoResponse
			}
			o.cfg.Log.Debug("completion", "symbol", symbol, "model", resp.Model, "input_tokens", resp.Usage.PromptTokens, "output_tokens", resp.Usage.CompletionTokens, "elapsed_ms", time.Since(start).Milliseconds())
			return text, nil
		}

		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return "", health.Wrap("completion failed", lastErr, "symbol", symbol, "model", o.cfg.Model)
}

func retryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || (apiErr.StatusCode >= 500 && apiErr.StatusCode <= 599)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
