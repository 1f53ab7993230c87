// Package llm turns design prompts into geometry scripts through an
// OpenAI-compatible chat-completions API.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// systemPrompt steers the model toward emitting a single script the kernel
// can compile.
const systemPrompt = "You are a 3D modeling assistant. Reply with a single " +
	"OpenSCAD script in a fenced code block that realizes the user's request. " +
	"Do not explain the code."

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient builds a client for the given endpoint. apiKey may be empty for
// unauthenticated local endpoints.
func NewClient(baseURL, apiKey, model string) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{http: c, model: model}
}

// Turn is one prior exchange fed back as conversation context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateScript asks the model for a geometry script satisfying prompt,
// given the prior conversation, and returns the extracted script text.
func (c *Client) GenerateScript(ctx context.Context, prompt string, history []Turn) (string, error) {
	messages := make([]Turn, 0, len(history)+2)
	messages = append(messages, Turn{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Turn{Role: "user", Content: prompt})

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{Model: c.model, Messages: messages}).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("chat completion failed: %s", out.Error.Message)
		}
		return "", fmt.Errorf("chat completion failed: %s", resp.Status())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	script := ExtractScript(out.Choices[0].Message.Content)
	if script == "" {
		return "", fmt.Errorf("reply contained no script")
	}
	return script, nil
}

// ExtractScript pulls the first fenced code block out of a model reply. A
// reply with no fences is returned whole, trimmed.
func ExtractScript(reply string) string {
	start := strings.Index(reply, "```")
	if start < 0 {
		return strings.TrimSpace(reply)
	}
	rest := reply[start+3:]
	// Drop an optional language tag on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
