// Package agent talks to an OpenAI-compatible chat backend to generate
// interview questions for a position.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
)

var (
	ErrPermanent = errors.New("permanent error")
	ErrTransient = errors.New("transient error")
)

// maxTokenCeiling caps a caller's max_tokens request.
const maxTokenCeiling = 4000

// Options configures the chat client. Model is used first; Fallback is
// tried once on transient failures when it differs from Model.
type Options struct {
	BaseURL  string
	APIKey   string
	Model    string
	Fallback string
	Timeout  time.Duration
}

type Client struct {
	opts Options
	http *http.Client
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://127.0.0.1:8000/v1"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Model == "" {
		opts.Model = "local"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &Client{opts: opts, http: &http.Client{Timeout: opts.Timeout}}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type ChatResponse struct {
	Model   string
	Content string
}

// CreateChatCompletion sends one chat request. 5xx and 429 responses and
// network errors count as transient and trigger a single fallback-model
// retry; 4xx responses are permanent.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.opts.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	if maxTokens > maxTokenCeiling {
		maxTokens = maxTokenCeiling
	}
	req.MaxTokens = maxTokens

	resp, err := c.call(ctx, model, req)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, ErrTransient) && c.opts.Fallback != "" && c.opts.Fallback != model {
		logging.Warnw("agent: retrying with fallback model",
			"model", model, "fallback", c.opts.Fallback, "err", err)
		time.Sleep(250 * time.Millisecond)
		return c.call(ctx, c.opts.Fallback, req)
	}
	return ChatResponse{}, err
}

func (c *Client) call(ctx context.Context, model string, req ChatRequest) (ChatResponse, error) {
	payload := map[string]interface{}{
		"model":       model,
		"messages":    req.Messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("%w: encode request: %v", ErrPermanent, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return ChatResponse{}, fmt.Errorf("%w: decode response: %v", ErrTransient, err)
		}
		content := ""
		if len(out.Choices) > 0 {
			content = out.Choices[0].Message.Content
		}
		return ChatResponse{Model: model, Content: content}, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return ChatResponse{}, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	default:
		return ChatResponse{}, fmt.Errorf("%w: status %d", ErrPermanent, resp.StatusCode)
	}
}

// GenerateQuestions asks the model for count spoken-interview questions
// tailored to a position.
func (c *Client) GenerateQuestions(ctx context.Context, title, description string, count int) ([]string, error) {
	if count <= 0 {
		count = 5
	}
	prompt := fmt.Sprintf(
		"Write %d interview questions for the position %q. %s\n"+
			"The questions will be read aloud and answered by voice, so keep each one short and self-contained. "+
			"Respond with a JSON array of strings and nothing else.",
		count, title, description)

	resp, err := c.CreateChatCompletion(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "You are a recruiter preparing a spoken screening interview."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	qs := parseQuestions(resp.Content)
	if len(qs) == 0 {
		return nil, fmt.Errorf("%w: no questions in model output", ErrPermanent)
	}
	if len(qs) > count {
		qs = qs[:count]
	}
	logging.Infow("agent: questions generated", "position", title, "count", len(qs), "model", resp.Model)
	return qs, nil
}

// parseQuestions accepts a JSON array, optionally wrapped in a markdown
// code fence, and falls back to splitting non-empty lines.
func parseQuestions(content string) []string {
	content = strings.TrimSpace(content)
	if i := strings.Index(content, "["); i >= 0 {
		if j := strings.LastIndex(content, "]"); j > i {
			var arr []string
			if err := json.Unmarshal([]byte(content[i:j+1]), &arr); err == nil {
				return trimAll(arr)
			}
		}
	}
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.-) ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
