package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sfc-gh-cserrano/cortex-threads/internal/assemble"
	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

// TurnOption configures callbacks observing a turn in flight.
type TurnOption func(*turnConfig)

type turnConfig struct {
	onReasoning func(string)
	onAnswer    func(string)
}

// WithReasoning registers a callback receiving the full reasoning buffer
// after each thinking delta. Snapshots are full-replace values: render by
// clearing and rewriting, never by appending.
func WithReasoning(fn func(string)) TurnOption {
	return func(c *turnConfig) { c.onReasoning = fn }
}

// WithAnswer registers a callback receiving the full answer buffer after
// each text delta or annotation, with the same full-replace semantics.
func WithAnswer(fn func(string)) TurnOption {
	return func(c *turnConfig) { c.onAnswer = fn }
}

// TurnResult is the outcome of a completed turn.
type TurnResult struct {
	ThreadID  cortex.ThreadID
	Reasoning string
	Answer    string
	Messages  []cortex.Message // refreshed thread history, oldest first
}

// Turn submits one prompt: it ensures a named thread exists, runs the agent,
// folds the event stream into reasoning and answer buffers, and on stream
// exhaustion refreshes the thread history so the causal pointer is ready for
// the next turn.
//
// Any failure is terminal for the turn and is returned as-is; text already
// delivered through callbacks stands and is not retracted. The pending
// prompt is cleared only on completion.
func (m *Manager) Turn(ctx context.Context, prompt string, opts ...TurnOption) (*TurnResult, error) {
	var cfg turnConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m.session.PendingPrompt = prompt

	threadID, err := m.EnsureThread(ctx, prompt)
	if err != nil {
		return nil, err
	}

	stream, err := m.api.RunAgent(ctx, cortex.TurnRequest{
		Prompt:          prompt,
		ThreadID:        threadID,
		ParentMessageID: m.session.ParentMessageID,
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var asm assemble.Assembler
	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var decodeErr *cortex.DecodeError
			if errors.As(err, &decodeErr) && !m.strict {
				slog.Warn("skipping malformed stream event",
					"event", decodeErr.Event,
					"error", decodeErr.Err,
				)
				continue
			}
			return nil, fmt.Errorf("consume agent stream: %w", err)
		}

		snap, ok := asm.Apply(ev)
		if !ok {
			continue
		}
		if snap.Final {
			if cfg.onAnswer != nil {
				cfg.onAnswer(snap.Text)
			}
		} else if cfg.onReasoning != nil {
			cfg.onReasoning(snap.Text)
		}
	}

	m.session.PendingPrompt = ""

	messages, err := m.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	slog.Debug("turn complete",
		"thread_id", threadID,
		"parent_message_id", m.session.ParentMessageID,
		"answer_len", len(asm.Answer()),
	)
	return &TurnResult{
		ThreadID:  threadID,
		Reasoning: asm.Reasoning(),
		Answer:    asm.Answer(),
		Messages:  messages,
	}, nil
}
