package cortex

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// CreateThread creates a new conversation thread owned by this client's
// application and returns its id.
func (c *Client) CreateThread(ctx context.Context) (ThreadID, error) {
	body := map[string]string{"origin_application": c.cfg.Application}
	var out struct {
		ThreadID ThreadID `json:"thread_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.threadsURL(), body, &out); err != nil {
		return 0, err
	}
	slog.Debug("thread created", "thread_id", out.ThreadID)
	return out.ThreadID, nil
}

// ListThreads returns the application's threads in the server's native order.
// Filtering by origin application happens server-side.
func (c *Client) ListThreads(ctx context.Context) ([]ThreadSummary, error) {
	listURL := c.threadsURL() + "/?origin_application=" + url.QueryEscape(c.cfg.Application)
	var out []ThreadSummary
	if err := c.doJSON(ctx, http.MethodGet, listURL, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ThreadMessages fetches the messages of a thread. Order is as the server
// returns them; callers sort by created_on when they need the turn order.
func (c *Client) ThreadMessages(ctx context.Context, id ThreadID) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/%d", c.threadsURL(), id), nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// RenameThread sets a thread's display name. The full name is stored as
// given; shortening for display is the caller's concern.
func (c *Client) RenameThread(ctx context.Context, id ThreadID, name string) error {
	body := map[string]string{"thread_name": name}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/%d", c.threadsURL(), id), body, nil)
}

// DeleteThread removes a thread and all of its messages.
func (c *Client) DeleteThread(ctx context.Context, id ThreadID) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", c.threadsURL(), id), nil, nil); err != nil {
		return err
	}
	slog.Debug("thread deleted", "thread_id", id)
	return nil
}
