package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

// HTTPClient speaks the OpenAI-compatible chat completions API
// (/v1/chat/completions) over HTTPS.
type HTTPClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithBaseURL sets a custom base URL (e.g. an OpenRouter or Groq endpoint).
func WithBaseURL(url string) HTTPClientOption {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPTransport overrides the underlying http.Client. Used by tests.
func WithHTTPTransport(httpc *http.Client) HTTPClientOption {
	return func(c *HTTPClient) { c.httpc = httpc }
}

// NewHTTPClient creates a chat completions client. The API key falls back
// to the OPENAI_API_KEY environment variable, the base URL to
// OPENAI_BASE_URL.
func NewHTTPClient(apiKey string, opts ...HTTPClientOption) (*HTTPClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, &ConfigurationError{Message: "API key is required"}
	}

	c := &HTTPClient{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com",
		httpc: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 120 * time.Second,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
			Timeout: 120 * time.Second,
		},
	}

	if envURL := os.Getenv("OPENAI_BASE_URL"); envURL != "" {
		c.baseURL = strings.TrimRight(envURL, "/")
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// chatResponse mirrors the relevant subset of the chat completions payload.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Complete sends a blocking chat completion request.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (*Response, error) {
	body := map[string]any{
		"model":    req.Model,
		"messages": req.Messages,
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if req.MaxTokens != nil {
		body["max_tokens"] = *req.MaxTokens
	}
	if req.JSONResponse {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, buildAPIError(resp)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &NetworkError{Cause: fmt.Errorf("decoding response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "response contained no choices"}
	}

	return &Response{
		Text:  parsed.Choices[0].Message.Content,
		Model: parsed.Model,
		Usage: parsed.Usage,
	}, nil
}

// buildAPIError extracts the provider error message from a failed response.
func buildAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var raw struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(body, &raw); err == nil {
		message = raw.Error.Message
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
