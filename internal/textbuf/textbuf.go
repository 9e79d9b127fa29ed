// Package textbuf provides an append/prepend text buffer.
//
// The reference implementation this translator is modeled on builds segment
// text by swapping prefix buffers — create a small "check" buffer, append
// the segment body to it, then swap the check buffer in as the segment. A
// naive Go port of that would do repeated string concatenation at the
// front, which is O(n^2) and obscures the two operations actually in play:
// append and prepend. Buffer is that shape made explicit: a sequence of
// pieces that grows at the end in O(1) amortized time (Prepend copies the
// piece list), flattened once via String.
package textbuf

import "strings"

// Buffer is an ordered sequence of text pieces.
type Buffer struct {
	pieces []string
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append adds text to the end of the buffer.
func (b *Buffer) Append(text string) {
	b.pieces = append(b.pieces, text)
}

// Prepend adds text to the start of the buffer.
func (b *Buffer) Prepend(text string) {
	b.pieces = append([]string{text}, b.pieces...)
}

// Reset discards all pieces, returning the buffer to empty.
func (b *Buffer) Reset() {
	b.pieces = b.pieces[:0]
}

// Len reports the number of pieces currently held.
func (b *Buffer) Len() int {
	return len(b.pieces)
}

// String concatenates all pieces in order.
func (b *Buffer) String() string {
	return strings.Join(b.pieces, "")
}
