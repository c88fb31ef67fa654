package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

// mockAPI is a test double for the cortex client.
type mockAPI struct {
	CreateThreadFunc   func(ctx context.Context) (cortex.ThreadID, error)
	ListThreadsFunc    func(ctx context.Context) ([]cortex.ThreadSummary, error)
	ThreadMessagesFunc func(ctx context.Context, id cortex.ThreadID) ([]cortex.Message, error)
	RenameThreadFunc   func(ctx context.Context, id cortex.ThreadID, name string) error
	DeleteThreadFunc   func(ctx context.Context, id cortex.ThreadID) error
	RunAgentFunc       func(ctx context.Context, turn cortex.TurnRequest) (*cortex.Stream, error)
}

func (m *mockAPI) CreateThread(ctx context.Context) (cortex.ThreadID, error) {
	if m.CreateThreadFunc != nil {
		return m.CreateThreadFunc(ctx)
	}
	return 1, nil
}

func (m *mockAPI) ListThreads(ctx context.Context) ([]cortex.ThreadSummary, error) {
	if m.ListThreadsFunc != nil {
		return m.ListThreadsFunc(ctx)
	}
	return nil, nil
}

func (m *mockAPI) ThreadMessages(ctx context.Context, id cortex.ThreadID) ([]cortex.Message, error) {
	if m.ThreadMessagesFunc != nil {
		return m.ThreadMessagesFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAPI) RenameThread(ctx context.Context, id cortex.ThreadID, name string) error {
	if m.RenameThreadFunc != nil {
		return m.RenameThreadFunc(ctx, id, name)
	}
	return nil
}

func (m *mockAPI) DeleteThread(ctx context.Context, id cortex.ThreadID) error {
	if m.DeleteThreadFunc != nil {
		return m.DeleteThreadFunc(ctx, id)
	}
	return nil
}

func (m *mockAPI) RunAgent(ctx context.Context, turn cortex.TurnRequest) (*cortex.Stream, error) {
	if m.RunAgentFunc != nil {
		return m.RunAgentFunc(ctx, turn)
	}
	return nil, errors.New("no agent configured")
}

func TestEnsureThreadCreatesAndRenames(t *testing.T) {
	ctx := context.Background()
	var createdName string
	creates := 0
	api := &mockAPI{
		CreateThreadFunc: func(ctx context.Context) (cortex.ThreadID, error) {
			creates++
			return 7, nil
		},
		RenameThreadFunc: func(ctx context.Context, id cortex.ThreadID, name string) error {
			if id != 7 {
				t.Errorf("rename targeted thread %d", id)
			}
			createdName = name
			return nil
		},
	}
	session := &Session{}
	m := NewManager(api, session)

	id, err := m.EnsureThread(ctx, "What is X?")
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 || session.ThreadID != 7 {
		t.Errorf("thread id = %d, session = %d", id, session.ThreadID)
	}
	if createdName != "What is X?" {
		t.Errorf("thread name = %q", createdName)
	}

	// A second call reuses the active thread.
	id, err = m.EnsureThread(ctx, "another prompt")
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 || creates != 1 {
		t.Errorf("expected one create, got %d (id=%d)", creates, id)
	}
}

func TestEnsureThreadShortensLongPrompts(t *testing.T) {
	var createdName string
	api := &mockAPI{
		RenameThreadFunc: func(ctx context.Context, id cortex.ThreadID, name string) error {
			createdName = name
			return nil
		},
	}
	m := NewManager(api, &Session{})

	prompt := "please summarize the quarterly revenue figures for every region"
	if _, err := m.EnsureThread(context.Background(), prompt); err != nil {
		t.Fatal(err)
	}
	if len([]rune(createdName)) > threadNameWidth {
		t.Errorf("name %q exceeds %d characters", createdName, threadNameWidth)
	}
	if createdName == prompt {
		t.Error("long prompt was not shortened")
	}
}

func TestEnsureThreadRenameFailureSurfaces(t *testing.T) {
	renameErr := errors.New("rename exploded")
	api := &mockAPI{
		RenameThreadFunc: func(ctx context.Context, id cortex.ThreadID, name string) error {
			return renameErr
		},
	}
	session := &Session{}
	m := NewManager(api, session)

	_, err := m.EnsureThread(context.Background(), "hello")
	if !errors.Is(err, renameErr) {
		t.Fatalf("expected rename error, got %v", err)
	}
	// The session keeps the created thread so a retry does not strand a
	// duplicate on the server.
	if !session.Active() {
		t.Error("session lost the created thread")
	}
}

func TestRefreshAdvancesCausalPointer(t *testing.T) {
	api := &mockAPI{
		ThreadMessagesFunc: func(ctx context.Context, id cortex.ThreadID) ([]cortex.Message, error) {
			// Deliberately out of order: the pointer must follow created_on,
			// not the server's list order.
			return []cortex.Message{
				{MessageID: 30, CreatedOn: 3000},
				{MessageID: 10, CreatedOn: 1000},
				{MessageID: 20, CreatedOn: 2000},
			}, nil
		},
	}
	session := &Session{}
	session.SetThread(5)
	m := NewManager(api, session)

	messages, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 3 || messages[0].MessageID != 10 || messages[2].MessageID != 30 {
		t.Errorf("messages not sorted by created_on: %+v", messages)
	}
	if session.ParentMessageID != 30 {
		t.Errorf("causal pointer = %d, want 30 (newest message)", session.ParentMessageID)
	}
}

func TestRefreshWithoutActiveThread(t *testing.T) {
	m := NewManager(&mockAPI{}, &Session{})
	messages, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if messages != nil {
		t.Errorf("expected no messages, got %+v", messages)
	}
}

func TestDeleteActiveThreadResetsSession(t *testing.T) {
	session := &Session{ThreadID: 5, ParentMessageID: 30, PendingPrompt: "pending"}
	m := NewManager(&mockAPI{}, session)

	if err := m.Delete(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if session.Active() || session.ParentMessageID != 0 || session.PendingPrompt != "" {
		t.Errorf("session not reset: %+v", session)
	}
}

func TestDeleteOtherThreadKeepsSession(t *testing.T) {
	session := &Session{ThreadID: 5, ParentMessageID: 30}
	m := NewManager(&mockAPI{}, session)

	if err := m.Delete(context.Background(), 99); err != nil {
		t.Fatal(err)
	}
	if session.ThreadID != 5 || session.ParentMessageID != 30 {
		t.Errorf("session mutated by unrelated delete: %+v", session)
	}
}

func TestDeleteFailureLeavesSession(t *testing.T) {
	session := &Session{ThreadID: 5, ParentMessageID: 30}
	api := &mockAPI{
		DeleteThreadFunc: func(ctx context.Context, id cortex.ThreadID) error {
			return errors.New("service unavailable")
		},
	}
	m := NewManager(api, session)

	if err := m.Delete(context.Background(), 5); err == nil {
		t.Fatal("expected an error")
	}
	if session.ThreadID != 5 {
		t.Error("failed delete reset the session")
	}
}

func TestShortenName(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 25, "short"},
		{"exactly  collapsed   spaces", 30, "exactly collapsed spaces"},
		{"please summarize the quarterly revenue", 25, "please summarize the..."},
		{"supercalifragilisticexpialidocious", 10, "superca..."},
		{"", 25, ""},
	}
	for _, tt := range tests {
		if got := ShortenName(tt.in, tt.width); got != tt.want {
			t.Errorf("ShortenName(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
