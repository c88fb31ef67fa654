package cortex

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// Stream is a pull-based decoder over the agent's server-push event stream.
// Next blocks on the underlying connection for the following event; Close
// releases the connection. The stream is finite and not restartable:
// replaying a turn requires a new agent call.
//
// A *DecodeError from Next fails only that item. Callers that want to abort
// on the first malformed event stop consuming and Close the stream.
type Stream struct {
	ctx     context.Context
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
	done    bool
	err     error
}

// NewStream decodes events from r. The context bounds consumption: once it is
// cancelled, Next returns the context's error. Callers must Close the stream
// when done; RunAgent wraps its response body in one of these.
func NewStream(ctx context.Context, r io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{ctx: ctx, body: r, scanner: scanner}
}

// Next returns the next decoded event. It returns io.EOF once the server
// closes the stream, and a *DecodeError when a recognized event carries a
// malformed payload; decoding continues on the following call. Events with
// unrecognized names are skipped.
func (s *Stream) Next() (StreamEvent, error) {
	if s.done {
		return StreamEvent{}, io.EOF
	}
	if s.err != nil {
		return StreamEvent{}, s.err
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return StreamEvent{}, err
	}

	var name, data string
	for s.scanner.Scan() {
		line := s.scanner.Text()
		switch {
		case line == "":
			if name == "" && data == "" {
				continue
			}
			ev, ok, err := decodeEvent(name, data)
			name, data = "", ""
			if err != nil {
				return StreamEvent{}, err
			}
			if !ok {
				continue
			}
			return ev, nil
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			chunk := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if data != "" {
				data += "\n"
			}
			data += chunk
		default:
			// Comments and fields this client does not use.
		}
	}

	if err := s.scanner.Err(); err != nil {
		// Closing the body mid-stream surfaces as a read error here; report
		// the cancellation instead when the context caused it.
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			s.err = ctxErr
			return StreamEvent{}, ctxErr
		}
		s.err = err
		return StreamEvent{}, err
	}

	// Connection closed without a trailing blank line: dispatch what is
	// buffered before reporting end of stream.
	if name != "" || data != "" {
		ev, ok, err := decodeEvent(name, data)
		if err != nil {
			s.done = true
			return StreamEvent{}, err
		}
		if ok {
			s.done = true
			return ev, nil
		}
	}

	s.done = true
	return StreamEvent{}, io.EOF
}

// Close releases the underlying connection. A blocked Next observes the close
// as end of stream or a read error. Close is safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// decodeEvent maps one named event to its typed variant. ok is false for
// event names this client does not recognize; those are skipped so new
// server-side event types never break older clients.
func decodeEvent(name, data string) (StreamEvent, bool, error) {
	switch name {
	case "response.thinking.delta":
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return StreamEvent{}, false, &DecodeError{Event: name, Data: data, Err: err}
		}
		return StreamEvent{Kind: EventThinkingDelta, Text: payload.Text}, true, nil
	case "response.text.delta":
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return StreamEvent{}, false, &DecodeError{Event: name, Data: data, Err: err}
		}
		return StreamEvent{Kind: EventTextDelta, Text: payload.Text}, true, nil
	case "response.text.annotation":
		var payload struct {
			Annotation      Annotation `json:"annotation"`
			AnnotationIndex int        `json:"annotation_index"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return StreamEvent{}, false, &DecodeError{Event: name, Data: data, Err: err}
		}
		return StreamEvent{
			Kind:            EventTextAnnotation,
			Annotation:      payload.Annotation,
			AnnotationIndex: payload.AnnotationIndex,
		}, true, nil
	default:
		return StreamEvent{}, false, nil
	}
}
