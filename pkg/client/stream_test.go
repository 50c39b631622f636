package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"grokctl/pkg/types"
)

// recordingHandler captures stream callbacks for assertions.
type recordingHandler struct {
	contents []string
	errs     []error
	complete bool
}

func (h *recordingHandler) OnContent(content string) {
	h.contents = append(h.contents, content)
}

func (h *recordingHandler) OnError(err error) {
	h.errs = append(h.errs, err)
}

func (h *recordingHandler) OnComplete() {
	h.complete = true
}

func sseServer(t *testing.T, lines ...string) *Client {
	t.Helper()
	return testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			io.WriteString(w, line+"\n")
		}
	})
}

func streamReq() types.ChatRequest {
	return types.ChatRequest{
		Model:    "grok-3",
		Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}},
	}
}

func TestStreamChatAccumulatesDeltas(t *testing.T) {
	c := sseServer(t,
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		``,
		`data: [DONE]`,
		``,
	)

	handler := &recordingHandler{}
	full, err := c.StreamChat(context.Background(), streamReq(), handler)
	require.NoError(t, err)
	require.Equal(t, "Hello", full)
	require.Equal(t, []string{"Hel", "lo"}, handler.contents)
	require.True(t, handler.complete)
	require.Empty(t, handler.errs)
}

func TestStreamChatStopsAtSentinel(t *testing.T) {
	c := sseServer(t,
		`data: {"choices":[{"delta":{"content":"done"}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"IGNORED"}}]}`,
	)

	handler := &recordingHandler{}
	full, err := c.StreamChat(context.Background(), streamReq(), handler)
	require.NoError(t, err)
	require.Equal(t, "done", full)
	require.True(t, handler.complete)
}

func TestStreamChatSkipsMalformedLines(t *testing.T) {
	c := sseServer(t,
		`data: {"choices":[{"delta":{"content":"a"}}]}`,
		`data: {not json`,
		`data: {"choices":[{"delta":{"content":"b"}}]}`,
		`data: [DONE]`,
	)

	handler := &recordingHandler{}
	full, err := c.StreamChat(context.Background(), streamReq(), handler)
	require.NoError(t, err)
	require.Equal(t, "ab", full)
	require.Empty(t, handler.errs)
}

func TestStreamChatIgnoresNonDataLines(t *testing.T) {
	c := sseServer(t,
		`: keep-alive comment`,
		`event: message`,
		`data: {"choices":[{"delta":{"content":"x"}}]}`,
		`data: [DONE]`,
	)

	handler := &recordingHandler{}
	full, err := c.StreamChat(context.Background(), streamReq(), handler)
	require.NoError(t, err)
	require.Equal(t, "x", full)
}

func TestStreamChatEOFWithoutSentinel(t *testing.T) {
	// A closed connection ends the stream without OnComplete.
	c := sseServer(t,
		`data: {"choices":[{"delta":{"content":"partial"}}]}`,
	)

	handler := &recordingHandler{}
	full, err := c.StreamChat(context.Background(), streamReq(), handler)
	require.NoError(t, err)
	require.Equal(t, "partial", full)
	require.False(t, handler.complete)
}

func TestStreamChatSurfacesStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "token pool exhausted")
	})

	handler := &recordingHandler{}
	_, err := c.StreamChat(context.Background(), streamReq(), handler)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Empty(t, handler.contents)
}
