package assemble

import (
	"sort"

	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

// SourceRef is a numbered citation with the character offset it annotates in
// the original, unannotated text.
type SourceRef struct {
	Number   int
	URL      string
	Position int
}

// Refs numbers stored annotations 1..n in arrival order and pairs each with
// its recorded offset.
func Refs(annotations []cortex.Annotation) []SourceRef {
	refs := make([]SourceRef, 0, len(annotations))
	for i, a := range annotations {
		refs = append(refs, SourceRef{Number: i + 1, URL: a.DocID, Position: a.Index})
	}
	return refs
}

// Insert places a citation marker at each ref's recorded offset and returns
// the annotated text. Offsets address characters of the original text, so
// refs are applied in descending position order (ties broken by descending
// number) and no insertion ever displaces a not-yet-processed offset. The
// result is therefore independent of the input order of refs.
//
// A position past the end of the text clamps to the end rather than failing;
// negative positions clamp to the start.
func Insert(text string, refs []SourceRef) string {
	if len(refs) == 0 {
		return text
	}

	sorted := make([]SourceRef, len(refs))
	copy(sorted, refs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position > sorted[j].Position
		}
		return sorted[i].Number > sorted[j].Number
	})

	// Positions are character offsets, not byte offsets.
	out := []rune(text)
	for _, ref := range sorted {
		pos := ref.Position
		if pos > len(out) {
			pos = len(out)
		}
		if pos < 0 {
			pos = 0
		}
		marker := []rune(Marker(ref.Number, ref.URL))

		next := make([]rune, 0, len(out)+len(marker))
		next = append(next, out[:pos]...)
		next = append(next, marker...)
		next = append(next, out[pos:]...)
		out = next
	}
	return string(out)
}
