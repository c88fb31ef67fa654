// internal/chat/session.go
package chat

import "github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"

// Session carries the only mutable state of a chat: the active thread, the
// causal pointer the next turn chains from, and the prompt waiting to be
// sent. Zero values mean "none"; a fresh Session is ready to use.
//
// The session belongs to exactly one user-facing chat at a time. Operations
// that target other threads must leave it untouched.
type Session struct {
	ThreadID        cortex.ThreadID
	ParentMessageID cortex.MessageID
	PendingPrompt   string
}

// SetThread activates a thread and clears the causal pointer. The pointer is
// recomputed from the thread's history on the next refresh, so switching
// threads never carries a pointer across.
func (s *Session) SetThread(id cortex.ThreadID) {
	s.ThreadID = id
	s.ParentMessageID = 0
}

// Reset returns the session to its initial state.
func (s *Session) Reset() {
	s.ThreadID = 0
	s.ParentMessageID = 0
	s.PendingPrompt = ""
}

// Active reports whether a thread is currently selected.
func (s *Session) Active() bool {
	return s.ThreadID != 0
}
