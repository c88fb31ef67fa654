package cortex

import "fmt"

// StatusError reports a non-2xx response from the service. The body is kept
// verbatim because the service puts its diagnostics there.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Code, e.Body)
}

// DecodeError reports a malformed payload for a recognized stream event. It
// invalidates only that item: events already yielded stand, and the stream
// keeps decoding afterwards.
type DecodeError struct {
	Event string
	Data  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s event: %v", e.Event, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
