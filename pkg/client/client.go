/*
Package client provides a Go client for the cartograph HTTP API. It covers
both the blocking chat endpoint and its streaming twin, including the
client-tool round trip: a suspended response hands back a tool call, the
caller performs the canvas action and resumes with the result.
*/
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
	"time"

	"github.com/cartograph/cartograph/pkg/service"
)

// Event is one server-sent event from the streaming endpoint.
type Event struct {
	Name string
	Data json.RawMessage
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// Chat performs one blocking conversation turn.
func (c *Client) Chat(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat request failed: %s: %s", resp.Status, string(body))
	}

	var out service.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	return &out, nil
}

/*
Stream performs one conversation turn over the streaming endpoint and
invokes the handler for every event in arrival order. It returns once the
stream ends; the end event carries the full final-or-suspension shape.
*/
func (c *Client) Stream(ctx context.Context, req service.ChatRequest, handler func(Event)) error {
	req.Stream = true

	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stream request failed: %s: %s", resp.Status, string(body))
	}

	return readEvents(ctx, resp.Body, handler)
}

// readEvents parses the SSE wire format: event/data line pairs separated by
// blank lines. Comment lines (heartbeats) are skipped.
func readEvents(ctx context.Context, body io.Reader, handler func(Event)) error {
	var (
		scanner = bufio.NewScanner(body)
		current Event
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()

		switch {
		case line == "":
			if current.Name != "" || len(current.Data) > 0 {
				handler(current)
			}
			current = Event{}
		case strings.HasPrefix(line, ":"):
			// heartbeat
		case strings.HasPrefix(line, "event: "):
			current.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.Data = json.RawMessage(strings.TrimPrefix(line, "data: "))
		}
	}

	if current.Name != "" || len(current.Data) > 0 {
		handler(current)
	}
	return scanner.Err()
}
