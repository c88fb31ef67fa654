// Package cortex is a client for the Cortex agent-run and threads REST
// endpoints. It covers thread lifecycle (create, list, fetch, rename,
// delete), submitting a turn to an agent, and decoding the server-push event
// stream the agent answers with.
//
// The client makes exactly one attempt per call and surfaces failures
// instead of masking them: non-2xx responses become *StatusError, transport
// failures are wrapped, and a malformed stream event becomes a *DecodeError
// for that item only.
package cortex
