package cortex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Config carries the service coordinates and credentials for a client.
// Database, Schema, and Agent locate the agent object; Application tags the
// threads this client owns.
type Config struct {
	AccountURL  string
	PAT         string
	Database    string
	Schema      string
	Agent       string
	Application string
}

// Client talks to the agent-run and threads endpoints of one account. It is
// safe for sequential use by a single session. Transient request failures are
// retried under the client's RetryPolicy; once a stream is established,
// nothing retries and every failure surfaces to the caller.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	retry      *RetryPolicy
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests. The default
// client carries no global timeout because the agent call holds a long-lived
// streaming connection; use the request context to bound calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy overrides the retry policy. A nil policy disables retries.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// New creates a client for the account described by cfg.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimSuffix(cfg.AccountURL, "/") + "/api/v2/",
		httpClient: &http.Client{},
		retry:      DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) agentURL() string {
	return c.baseURL + fmt.Sprintf("databases/%s/schemas/%s/agents/%s:run",
		c.cfg.Database, c.cfg.Schema, c.cfg.Agent)
}

func (c *Client) threadsURL() string {
	return c.baseURL + "cortex/threads"
}

// newRequest builds an authenticated JSON request. Every request carries a
// fresh X-Request-Id, so each retry attempt of a turn's calls can be
// correlated in logs on both ends.
func (c *Client) newRequest(ctx context.Context, method, url string, payload []byte) (*http.Request, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.PAT)
	req.Header.Set("X-Request-Id", uuid.New().String())
	return req, nil
}

// do sends the request and decodes a 2xx JSON body into out when out is
// non-nil. Non-2xx responses become a *StatusError carrying the body.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

// doJSON marshals body once, then sends the request under the retry policy,
// rebuilding the request per attempt so each retry gets a fresh body reader
// and request id.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	attempt := func() error {
		req, err := c.newRequest(ctx, method, url, payload)
		if err != nil {
			return err
		}
		return c.do(req, out)
	}
	if c.retry == nil {
		return attempt()
	}
	return c.retry.Execute(ctx, attempt)
}

// agentRunBody is the wire shape of an agent :run call.
type agentRunBody struct {
	Messages        []agentMessage `json:"messages"`
	Stream          bool           `json:"stream"`
	ThreadID        ThreadID       `json:"thread_id"`
	ParentMessageID MessageID      `json:"parent_message_id"`
}

type agentMessage struct {
	Role    string             `json:"role"`
	Content []agentContentItem `json:"content"`
}

type agentContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RunAgent submits a turn and returns the live event stream. The caller owns
// the stream and must Close it; abandoning a turn mid-stream closes the
// underlying connection without draining it.
func (c *Client) RunAgent(ctx context.Context, turn TurnRequest) (*Stream, error) {
	body := agentRunBody{
		Messages: []agentMessage{{
			Role:    "user",
			Content: []agentContentItem{{Type: "text", Text: turn.Prompt}},
		}},
		Stream:          true,
		ThreadID:        turn.ThreadID,
		ParentMessageID: turn.ParentMessageID,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	// Only establishing the stream retries; once the body is handed to the
	// Stream, a broken connection surfaces as a read error.
	var resp *http.Response
	attempt := func() error {
		req, err := c.newRequest(ctx, http.MethodPost, c.agentURL(), payload)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "text/event-stream")

		r, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			data, _ := io.ReadAll(r.Body)
			r.Body.Close()
			return &StatusError{Code: r.StatusCode, Body: string(data)}
		}
		resp = r
		return nil
	}
	if c.retry != nil {
		err = c.retry.Execute(ctx, attempt)
	} else {
		err = attempt()
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("agent stream opened",
		"thread_id", turn.ThreadID,
		"parent_message_id", turn.ParentMessageID,
	)
	return NewStream(ctx, resp.Body), nil
}
