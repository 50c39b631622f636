package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"grokctl/pkg/types"
)

// StreamHandler defines the interface for handling stream events
type StreamHandler interface {
	OnContent(content string)
	OnError(err error)
	OnComplete()
}

const doneSentinel = "[DONE]"

// StreamChat initiates a streaming chat completion request. Deltas are
// delivered to the handler as they arrive and concatenated into the returned
// string. A data line that fails to parse as JSON is skipped, not fatal: the
// proxy interleaves non-standard progress text for media models. Reading
// stops at the [DONE] sentinel or when the connection closes.
func (c *Client) StreamChat(ctx context.Context, req types.ChatRequest, handler StreamHandler) (string, error) {
	req.Stream = true

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	c.log.WithField("model", req.Model).Debug("POST /chat/completions (stream)")

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var full strings.Builder
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			err = fmt.Errorf("failed to read stream: %w", err)
			handler.OnError(err)
			return full.String(), err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "event:") || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == doneSentinel {
			handler.OnComplete()
			break
		}

		var chunk types.StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.log.WithError(err).Debug("skipping unparseable stream line")
			continue
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			content := chunk.Choices[0].Delta.Content
			full.WriteString(content)
			handler.OnContent(content)
		}
	}

	return full.String(), nil
}
