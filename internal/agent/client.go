// Package agent is the client for the hosted conversational weather agent.
// It posts the user's utterance and decodes the chunked tagged line stream
// the endpoint answers with.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/internal/logger"
	"github.com/skycast-app/skycast/internal/stream"
)

// Client streams one turn at a time; it holds no conversation state.
type Client struct {
	cfg    config.AgentConfig
	client *http.Client
}

func NewClient(cfg config.AgentConfig) *Client {
	// No client timeout: the stream stays open for as long as the agent
	// keeps producing tokens. Cancellation comes from the context.
	return &Client{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// request is the agent endpoint's body. The message objects are the same
// role/content shape the OpenAI chat API uses, so the library types are the
// wire format.
type request struct {
	Messages       []openai.ChatCompletionMessage `json:"messages"`
	RunID          string                         `json:"runId"`
	MaxRetries     int                            `json:"maxRetries"`
	MaxSteps       int                            `json:"maxSteps"`
	Temperature    float64                        `json:"temperature"`
	TopP           float64                        `json:"topP"`
	RuntimeContext map[string]any                 `json:"runtimeContext"`
	ThreadID       string                         `json:"threadId"`
	ResourceID     string                         `json:"resourceId"`
}

// Stream sends text to the agent and decodes the reply incrementally.
// onChunk observes the cumulative message text (and structured weather
// payload, once seen) after every chunk of the response body. The final
// text and payload are returned when the transport closes the stream.
func (c *Client) Stream(ctx context.Context, text string, onChunk func(text string, result *stream.ToolResult)) (string, *stream.ToolResult, error) {
	body, err := json.Marshal(request{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		RunID:          c.cfg.ResourceID,
		MaxRetries:     2,
		MaxSteps:       5,
		Temperature:    0.5,
		TopP:           1,
		RuntimeContext: map[string]any{},
		ThreadID:       c.cfg.ThreadID,
		ResourceID:     c.cfg.ResourceID,
	})
	if err != nil {
		return "", nil, fmt.Errorf("encoding agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("building agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-mastra-dev-playground", "true")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("reaching agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	dec := stream.NewDecoder()
	buf := make([]byte, 1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := dec.Write(buf[:n]); err != nil {
				return "", nil, err
			}
			if onChunk != nil {
				onChunk(dec.Text(), dec.Result())
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", nil, fmt.Errorf("reading agent stream: %w", readErr)
		}
	}
	if err := dec.Close(); err != nil {
		return "", nil, err
	}

	logger.L.Debug("agent stream complete", "chars", len(dec.Text()), "structured", dec.Result() != nil)
	return dec.Text(), dec.Result(), nil
}
