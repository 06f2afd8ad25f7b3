package assistant

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// Completer is the uniform capability every LLM provider implements.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LLMConfig selects one provider of the closed set: openrouter,
// openai, anthropic, gemini, or custom (any chat-completions
// compatible endpoint).
type LLMConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string // custom provider only
}

func NewCompleter(cfg LLMConfig) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	switch cfg.Provider {
	case "openrouter", "":
		model := cfg.Model
		if model == "" {
			model = "mistralai/mistral-small-24b-instruct-2501:free"
		}
		return &chatCompleter{
			endpoint: "https://openrouter.ai/api/v1/chat/completions",
			model:    model,
			apiKey:   cfg.APIKey,
			headers: map[string]string{
				"HTTP-Referer": "https://github.com/tofunori/farewatch",
				"X-Title":      "farewatch",
			},
		}, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return &chatCompleter{
			endpoint: "https://api.openai.com/v1/chat/completions",
			model:    model,
			apiKey:   cfg.APIKey,
		}, nil
	case "anthropic":
		model := cfg.Model
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}
		return &anthropicCompleter{model: model, apiKey: cfg.APIKey}, nil
	case "gemini":
		model := cfg.Model
		if model == "" {
			model = "gemini-2.0-flash"
		}
		return &geminiCompleter{model: model, apiKey: cfg.APIKey}, nil
	case "custom":
		if cfg.BaseURL == "" {
			return nil, errors.New("custom llm provider requires a base url")
		}
		return &chatCompleter{
			endpoint: cfg.BaseURL + "/chat/completions",
			model:    cfg.Model,
			apiKey:   cfg.APIKey,
		}, nil
	default:
		return nil, errors.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// chatCompleter speaks the OpenAI-style chat-completions wire format,
// shared by OpenRouter, OpenAI and custom endpoints.
type chatCompleter struct {
	endpoint string
	model    string
	apiKey   string
	headers  map[string]string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *chatCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	var out chatResponse
	resp, err := resty.New().SetTimeout(60*time.Second).R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeaders(c.headers).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
		}).
		SetResult(&out).
		Post(c.endpoint)
	if err != nil {
		return "", errors.Wrap(err, "chat completion request")
	}
	if resp.IsError() {
		return "", errors.Errorf("chat completion http %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

type anthropicCompleter struct {
	model  string
	apiKey string
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *anthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	var out anthropicResponse
	resp, err := resty.New().SetTimeout(60*time.Second).R().
		SetContext(ctx).
		SetHeader("x-api-key", c.apiKey).
		SetHeader("anthropic-version", "2023-06-01").
		SetBody(anthropicRequest{
			Model:     c.model,
			MaxTokens: 1000,
			System:    system,
			Messages:  []chatMessage{{Role: "user", Content: user}},
		}).
		SetResult(&out).
		Post("https://api.anthropic.com/v1/messages")
	if err != nil {
		return "", errors.Wrap(err, "anthropic request")
	}
	if resp.IsError() {
		return "", errors.Errorf("anthropic http %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Content) == 0 {
		return "", errors.New("anthropic returned no content")
	}
	return out.Content[0].Text, nil
}

type geminiCompleter struct {
	model  string
	apiKey string
}

func (c *geminiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", errors.Wrap(err, "create gemini client")
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: user}}},
	}
	resp, err := client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	})
	if err != nil {
		return "", errors.Wrap(err, "gemini generate")
	}
	return resp.Text(), nil
}
