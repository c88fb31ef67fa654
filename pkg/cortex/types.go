// pkg/cortex/types.go
package cortex

// The Cortex REST API issues numeric identifiers for threads and messages.
// Zero is never a valid id, so it doubles as the "none" value for session
// pointers held by callers.
type ThreadID int64
type MessageID int64

// ThreadSummary is one entry from the thread listing endpoint. UpdatedOn is
// an epoch-millisecond timestamp.
type ThreadSummary struct {
	ThreadID   ThreadID `json:"thread_id"`
	ThreadName string   `json:"thread_name"`
	UpdatedOn  int64    `json:"updated_on"`
}

// Message is one turn fetched back from a thread. MessagePayload is a JSON
// string; Content parses it into ordered content items.
type Message struct {
	MessageID       MessageID `json:"message_id"`
	ThreadID        ThreadID  `json:"thread_id"`
	ParentMessageID MessageID `json:"parent_message_id"`
	Role            string    `json:"role"`
	CreatedOn       int64     `json:"created_on"`
	MessagePayload  string    `json:"message_payload"`
}

// Annotation ties a span of generated text to a source document. Index is a
// character offset into the text as originally authored, before any markers
// were inserted.
type Annotation struct {
	DocID string `json:"doc_id"`
	Index int    `json:"index"`
}

// EventKind identifies a decoded stream event variant.
type EventKind int

const (
	// EventUnknown is the no-op variant for event names this client does not
	// recognize. The decoder skips these, so callers never observe it.
	EventUnknown EventKind = iota
	EventThinkingDelta
	EventTextDelta
	EventTextAnnotation
)

// StreamEvent is one decoded delta from the agent-run event stream. Kind
// selects which fields are meaningful: Text for the delta variants,
// Annotation and AnnotationIndex for EventTextAnnotation.
type StreamEvent struct {
	Kind            EventKind
	Text            string
	Annotation      Annotation
	AnnotationIndex int
}

// TurnRequest is one user turn submitted to the agent-run endpoint.
type TurnRequest struct {
	Prompt          string
	ThreadID        ThreadID
	ParentMessageID MessageID
}
