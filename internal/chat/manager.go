package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

// threadNameWidth is the display width new threads are named to, shortened
// from the first prompt.
const threadNameWidth = 25

// API is the surface of the cortex client the manager drives.
// *cortex.Client implements it.
type API interface {
	CreateThread(ctx context.Context) (cortex.ThreadID, error)
	ListThreads(ctx context.Context) ([]cortex.ThreadSummary, error)
	ThreadMessages(ctx context.Context, id cortex.ThreadID) ([]cortex.Message, error)
	RenameThread(ctx context.Context, id cortex.ThreadID, name string) error
	DeleteThread(ctx context.Context, id cortex.ThreadID) error
	RunAgent(ctx context.Context, turn cortex.TurnRequest) (*cortex.Stream, error)
}

// Manager owns thread operations on behalf of one session: ensuring a thread
// exists before the first turn, deriving the causal pointer from history, and
// resetting the session when its thread goes away.
type Manager struct {
	api     API
	session *Session
	strict  bool
}

// ManagerOption configures optional manager behavior.
type ManagerOption func(*Manager)

// StrictDecode makes a turn abort on the first malformed stream event. The
// default skips the bad item, logs it, and keeps consuming.
func StrictDecode() ManagerOption {
	return func(m *Manager) { m.strict = true }
}

// NewManager creates a manager binding the client to the given session.
func NewManager(api API, session *Session, opts ...ManagerOption) *Manager {
	m := &Manager{api: api, session: session}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the session the manager operates on.
func (m *Manager) Session() *Session {
	return m.session
}

// EnsureThread returns the active thread, creating one named after the
// prompt if the session has none. Create and rename are strictly sequenced:
// the session adopts the thread as soon as it exists (so a rename failure
// never strands a duplicate), and a rename failure surfaces before any
// prompt is sent.
func (m *Manager) EnsureThread(ctx context.Context, prompt string) (cortex.ThreadID, error) {
	if m.session.Active() {
		return m.session.ThreadID, nil
	}

	id, err := m.api.CreateThread(ctx)
	if err != nil {
		return 0, fmt.Errorf("create thread: %w", err)
	}
	m.session.SetThread(id)

	if err := m.api.RenameThread(ctx, id, ShortenName(prompt, threadNameWidth)); err != nil {
		return 0, fmt.Errorf("rename thread: %w", err)
	}

	slog.Info("thread created", "thread_id", id)
	return id, nil
}

// Refresh fetches the active thread's history sorted by created_on ascending
// and advances the causal pointer to the newest message, so the next turn
// chains from the last message of the thread. With no active thread it
// returns nothing.
func (m *Manager) Refresh(ctx context.Context) ([]cortex.Message, error) {
	if !m.session.Active() {
		return nil, nil
	}

	messages, err := m.api.ThreadMessages(ctx, m.session.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("fetch thread messages: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedOn < messages[j].CreatedOn
	})
	if len(messages) > 0 {
		m.session.ParentMessageID = messages[len(messages)-1].MessageID
	}
	return messages, nil
}

// List returns the application's threads in the server's native order.
func (m *Manager) List(ctx context.Context) ([]cortex.ThreadSummary, error) {
	threads, err := m.api.ListThreads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return threads, nil
}

// Rename renames a thread. It never touches the session, active thread or
// not: a name change has no bearing on conversation state.
func (m *Manager) Rename(ctx context.Context, id cortex.ThreadID, name string) error {
	if err := m.api.RenameThread(ctx, id, name); err != nil {
		return fmt.Errorf("rename thread: %w", err)
	}
	return nil
}

// Delete removes a thread. Deleting the active thread resets the session to
// its initial state; deleting any other thread leaves the session alone.
func (m *Manager) Delete(ctx context.Context, id cortex.ThreadID) error {
	if err := m.api.DeleteThread(ctx, id); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	if m.session.ThreadID == id {
		m.session.Reset()
		slog.Info("active thread deleted, session reset", "thread_id", id)
	}
	return nil
}

// ShortenName collapses whitespace in s and trims it to at most width
// characters, cutting on a word boundary and ending with "..." when anything
// was dropped.
func ShortenName(s string, width int) string {
	const placeholder = "..."

	words := strings.Fields(s)
	joined := strings.Join(words, " ")
	if utf8.RuneCountInString(joined) <= width {
		return joined
	}

	budget := width - len(placeholder)
	var b strings.Builder
	for _, word := range words {
		sep := ""
		if b.Len() > 0 {
			sep = " "
		}
		if utf8.RuneCountInString(b.String())+len(sep)+utf8.RuneCountInString(word) > budget {
			break
		}
		b.WriteString(sep)
		b.WriteString(word)
	}
	if b.Len() == 0 {
		// First word alone exceeds the budget: hard-cut it.
		runes := []rune(joined)
		return string(runes[:budget]) + placeholder
	}
	return b.String() + placeholder
}
