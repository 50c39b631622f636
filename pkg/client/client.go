package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"grokctl/pkg/config"
	"grokctl/pkg/types"
)

// APIError is a non-200 response from the proxy. The status code and raw
// body are surfaced unmodified; Hint adds a human-readable nudge for the
// statuses the proxy is known to return.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if hint := e.Hint(); hint != "" {
		return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Body, hint)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Hint returns troubleshooting guidance for known status codes.
func (e *APIError) Hint() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "bad or missing API key"
	case http.StatusTooManyRequests:
		return "rate limited or token pool exhausted, try again later"
	case http.StatusInternalServerError:
		return "server error, the upstream session may need a refresh"
	default:
		return ""
	}
}

// Client represents the Grok proxy API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a client from an explicit configuration value. The
// configured timeout bounds the whole request, stream reads included.
func NewClient(cfg config.Config, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// checkStatus drains the body into an APIError for any non-200 response.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
}

// CreateChatCompletion issues a non-streaming chat completion request and
// returns the parsed response body.
func (c *Client) CreateChatCompletion(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	req.Stream = false

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.log.WithField("model", req.Model).Debug("POST /chat/completions")

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var chatResp types.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &chatResp, nil
}

// FirstContent extracts the first choice's message content from a response.
func FirstContent(resp *types.ChatResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("response contains no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels fetches the model descriptors the proxy currently serves.
func (c *Client) ListModels(ctx context.Context) (*types.ModelList, error) {
	c.log.Debug("GET /models")

	httpReq, err := c.newRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var list types.ModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}
	return &list, nil
}
