// Package client consumes the demo's streaming agent endpoint. It reads the
// raw event-stream bytes in arbitrary chunks, reassembles frames, and hands
// callers typed turn events plus the accumulated transcript.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/haasonsaas/dealflow/pkg/models"
)

// framePrefix is the event-stream data-line marker.
var framePrefix = []byte("data: ")

// frameBuffer reassembles complete frames from arbitrarily split chunks.
// A frame ends at a blank line; a trailing partial frame stays buffered
// until the next chunk completes it.
type frameBuffer struct {
	buf []byte
}

// Push appends a chunk and returns the frames it completed, in order.
func (b *frameBuffer) Push(chunk []byte) [][]byte {
	b.buf = append(b.buf, chunk...)

	var frames [][]byte
	for {
		idx := bytes.Index(b.buf, []byte("\n\n"))
		if idx < 0 {
			return frames
		}
		frame := make([]byte, idx)
		copy(frame, b.buf[:idx])
		b.buf = b.buf[idx+2:]
		frames = append(frames, frame)
	}
}

// parseFrame decodes one reassembled frame into a turn event.
func parseFrame(frame []byte) (*models.StreamEvent, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !bytes.HasPrefix(trimmed, framePrefix) {
		return nil, fmt.Errorf("frame missing data prefix")
	}
	var ev models.StreamEvent
	if err := json.Unmarshal(bytes.TrimPrefix(trimmed, framePrefix), &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &ev, nil
}

// TurnResult is the accumulated outcome of one streamed turn.
type TurnResult struct {
	// Thinking is the concatenated reasoning text.
	Thinking string

	// Output is the concatenated output text from the deltas.
	Output string

	// FinalOutput is the authoritative turn output carried by the complete
	// event.
	FinalOutput string

	// Completed is true when the turn reached a complete event.
	Completed bool

	// Cancelled is true when the caller aborted the turn mid-stream.
	Cancelled bool

	// ErrMessage carries the error event's message when the turn failed.
	ErrMessage string
}

// Handler observes each event as it arrives. May be nil.
type Handler func(models.StreamEvent)

// Client drives agent turns against a running demo server. At most one turn
// is in flight per client; starting a new turn aborts the previous one.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a client for the given server base URL.
func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.With("component", "client"),
	}
}

// Cancel aborts the in-flight turn, if any. The aborted turn finishes with
// Cancelled set rather than an error.
func (c *Client) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// RunStep streams one agent step to completion, cancellation, or failure.
// Malformed frames are skipped with a warning; they never abort the turn.
func (c *Client) RunStep(ctx context.Context, stepID string, handler Handler) (*TurnResult, error) {
	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		c.mu.Unlock()
	}()

	body, err := json.Marshal(map[string]string{"stepId": stepID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(runCtx, http.MethodPost, c.baseURL+"/api/agent", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if runCtx.Err() != nil {
			return &TurnResult{Cancelled: true}, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil || len(bytes.TrimSpace(msg)) == 0 {
			return nil, fmt.Errorf("agent request failed: %s", resp.Status)
		}
		return nil, fmt.Errorf("agent request failed: %s (%s)", resp.Status, bytes.TrimSpace(msg))
	}

	return c.consume(runCtx, resp.Body, handler)
}

func (c *Client) consume(ctx context.Context, r io.Reader, handler Handler) (*TurnResult, error) {
	result := &TurnResult{}
	var frames frameBuffer
	chunk := make([]byte, 4096)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			for _, frame := range frames.Push(chunk[:n]) {
				ev, perr := parseFrame(frame)
				if perr != nil {
					c.logger.Warn("skipping malformed frame", "error", perr)
					continue
				}
				if ev == nil {
					continue
				}
				c.apply(result, *ev)
				if handler != nil {
					handler(*ev)
				}
				// A terminal event ends the turn; anything the server
				// sends after it is ignored.
				if ev.Terminal() {
					return result, nil
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			if ctx.Err() != nil {
				result.Cancelled = true
				return result, nil
			}
			return result, fmt.Errorf("read stream: %w", err)
		}
	}
}

func (c *Client) apply(result *TurnResult, ev models.StreamEvent) {
	switch ev.Type {
	case models.EventThinkingDelta:
		result.Thinking += ev.Data.Content
	case models.EventOutputDelta:
		result.Output += ev.Data.Content
	case models.EventComplete:
		result.Completed = true
		result.FinalOutput = ev.Data.Output
	case models.EventError:
		result.ErrMessage = ev.Data.Message
	}
}

// Steps fetches the demo script from the server.
func (c *Client) Steps(ctx context.Context) ([]models.DemoStep, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/steps", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steps request failed: %s", resp.Status)
	}
	var out struct {
		Steps []models.DemoStep `json:"steps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	return out.Steps, nil
}
