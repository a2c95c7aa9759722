package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartograph/cartograph/pkg/service"
)

func TestChatDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)

		var req service.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "describe the diagram", req.Message)

		json.NewEncoder(w).Encode(service.ChatResponse{
			Type:       "final",
			Text:       "two nodes, one link",
			Iterations: 1,
			SessionID:  "sess-1",
		})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Chat(context.Background(), service.ChatRequest{Message: "describe the diagram"})
	require.NoError(t, err)
	assert.Equal(t, "final", resp.Type)
	assert.Equal(t, "two nodes, one link", resp.Text)
	assert.Equal(t, "sess-1", resp.SessionID)
}

func TestChatSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Chat(context.Background(), service.ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad request")
}

func TestReadEventsParsesFramesAndSkipsHeartbeats(t *testing.T) {
	raw := strings.Join([]string{
		"event: start",
		`data: {"session_id":"sess-1"}`,
		"",
		": heartbeat",
		"",
		"event: text",
		`data: {"delta":"hello"}`,
		"",
		"event: end",
		`data: {"type":"final","text":"hello"}`,
		"",
	}, "\n")

	var events []Event
	err := readEvents(context.Background(), strings.NewReader(raw), func(evt Event) {
		events = append(events, evt)
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, "start", events[0].Name)
	assert.Equal(t, "text", events[1].Name)
	assert.Equal(t, "end", events[2].Name)
	assert.JSONEq(t, `{"delta":"hello"}`, string(events[1].Data))
}
