package translator

import (
	"fmt"
	"strings"

	"github.com/kyteague/evm2wasm/log"
)

// Link implements the Jump Linker (spec.md §4.5): it takes the segment list
// and per-segment WAST chunks produced by Build and wraps them in the block
// scaffold that realizes EVM's arbitrary indirect jumps inside Wasm's
// structured control flow.
//
// The construction runs back-to-front: each recorded JumpDest segment wraps
// the previous if-tree in one more "is $jump_dest this segment's offset"
// test, with CbDest segments contributing no test (they are reached only
// via the callback br_table). The whole if-tree sits behind a first-entry
// guard, and the br_table used by AsyncAPI resumption, inside a preamble
// block labeled $0. That preamble, plus one nested block per segment, plus
// the enclosing $done block and $loop, is the dispatcher.
func Link(r Result) string {
	l := log.Module("linker")
	if len(r.Segments) == 0 {
		l.Debug("no segments recorded; emitting straight-line body", "bytes", len(r.Body))
		return fmt.Sprintf("(func $main\n(local $jump_dest i32)\n(block $done\n(loop $loop\n%s\n)\n)\n)", r.Body)
	}

	hasCallbacks := len(r.CallbackTable) > 0
	dispatch := buildDispatchTree(r.Segments)
	preamble := buildPreamble(dispatch, r.Segments, hasCallbacks)

	var body strings.Builder
	body.WriteString("(local $jump_dest i32)\n")
	if hasCallbacks {
		body.WriteString("(local $cb_sel i32)\n")
	}
	body.WriteString("(set_local $jump_dest (i32.const -1))\n")
	body.WriteString("(block $done\n(loop $loop\n")
	body.WriteString(nestBlocks(preamble, r.Segments, r.Chunks))
	body.WriteString("\n)\n)")

	return fmt.Sprintf("(func $main\n%s)", body.String())
}

// buildDispatchTree builds the if-tree described in spec.md §4.5 step 2,
// back-to-front starting from an innermost "no match" trap.
func buildDispatchTree(segments []Segment) string {
	w := "(unreachable)"
	for _, s := range segments {
		if s.Kind != JumpDest {
			continue
		}
		w = fmt.Sprintf(
			"(if (i32.eq (get_local $jump_dest) (i32.const %d)) (then (br $%d)) (else %s))",
			s.Number, s.Index, w,
		)
	}
	return w
}

// buildPreamble wraps the dispatch if-tree in the branch-once idiom and, if
// async callbacks exist, the br_table that resumes at a callback
// destination in preference to ordinary jump dispatch.
func buildPreamble(dispatchTree string, segments []Segment, hasCallbacks bool) string {
	var body string
	if hasCallbacks {
		// spec.md §4.5 step 3: "br_table $0 $1 $2 … $N with all recorded
		// segments (both kinds) as labels" — $0 is the preamble block
		// itself and $k exits into segment k's code. A selector past the
		// end of the list takes br_table's last label, $N.
		var labels strings.Builder
		labels.WriteString(" $0")
		for _, s := range segments {
			labels.WriteString(fmt.Sprintf(" $%d", s.Index))
		}
		body = fmt.Sprintf(
			"(if (i32.eqz (get_global $cb_dest)) (then %s) (else (set_local $cb_sel (get_global $cb_dest)) (set_global $cb_dest (i32.const 0)) (br_table%s (get_local $cb_sel))))",
			dispatchTree, labels.String(),
		)
	} else {
		body = dispatchTree
	}

	return fmt.Sprintf(
		"(block $0\n"+
			"(if (i32.eqz (get_global $init)) (then (set_global $init (i32.const 1)) (br $0)))\n"+
			"%s\n"+
			")",
		body,
	)
}

// nestBlocks surrounds the preamble with one block per recorded segment,
// outermost segment N down to innermost segment 1, and appends each
// segment's WAST chunk immediately after the block that exits into it, so
// that "br $k" falls straight into segment k's code.
func nestBlocks(preamble string, segments []Segment, chunks []string) string {
	var b strings.Builder
	n := len(segments)
	for i := n; i >= 1; i-- {
		fmt.Fprintf(&b, "(block $%d\n", i)
	}
	b.WriteString(preamble)
	for i := 0; i < n; i++ {
		chunk := ""
		if i < len(chunks) {
			chunk = chunks[i]
		}
		fmt.Fprintf(&b, "\n)\n%s", chunk)
	}
	return b.String()
}
