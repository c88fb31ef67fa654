// Package assemble reconstructs an agent response from its deltas. The
// Assembler folds a live event stream into reasoning and answer buffers;
// Insert replays a stored message by placing citation markers at their
// recorded offsets. The two paths are intentionally distinct: a live
// annotation is appended where the answer currently ends, a stored one is
// inserted where its text position says.
package assemble

import (
	"fmt"
	"strings"

	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

// Snapshot is the assembler's full-replace output: the complete current
// value of one buffer. Callers render it by clearing and rewriting, so
// repeating a snapshot is idempotent.
type Snapshot struct {
	Final bool // true for the answer buffer, false for reasoning
	Text  string
}

// Assembler accumulates an agent response across stream events. The zero
// value is ready to use.
type Assembler struct {
	reasoning strings.Builder
	answer    strings.Builder
}

// Apply folds one event into the buffers and returns the updated buffer as a
// snapshot. ok is false when the event changes neither buffer.
func (a *Assembler) Apply(ev cortex.StreamEvent) (Snapshot, bool) {
	switch ev.Kind {
	case cortex.EventThinkingDelta:
		a.reasoning.WriteString(ev.Text)
		return Snapshot{Final: false, Text: a.reasoning.String()}, true
	case cortex.EventTextDelta:
		a.answer.WriteString(ev.Text)
		return Snapshot{Final: true, Text: a.answer.String()}, true
	case cortex.EventTextAnnotation:
		// The marker lands at the current tail of the answer. Offsets only
		// matter when replaying stored messages.
		a.answer.WriteString(Marker(ev.AnnotationIndex, ev.Annotation.DocID))
		return Snapshot{Final: true, Text: a.answer.String()}, true
	default:
		return Snapshot{}, false
	}
}

// Reasoning returns the accumulated reasoning text.
func (a *Assembler) Reasoning() string {
	return a.reasoning.String()
}

// Answer returns the accumulated answer text, markers included.
func (a *Assembler) Answer() string {
	return a.answer.String()
}

// Marker formats the inline citation marker for reference n pointing at url.
// The surrounding spaces keep markers from fusing with adjacent words.
func Marker(n int, url string) string {
	return fmt.Sprintf(" [%d](%s) ", n, url)
}
