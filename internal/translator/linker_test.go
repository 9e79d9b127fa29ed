package translator

import (
	"strings"
	"testing"
)

func TestLinkEmptyProgramHasNoBlocks(t *testing.T) {
	r := Build(nil, DefaultOptions())
	main := Link(r)
	if strings.Contains(main, "(block $1") {
		t.Errorf("empty program must not emit any numbered block, got %q", main)
	}
	if !strings.Contains(main, "(func $main") {
		t.Errorf("expected a $main function, got %q", main)
	}
}

func TestLinkOneJumpdestProducesOneIfBranch(t *testing.T) {
	code := []byte{0x5b, 0x60, 0x00, 0x56} // JUMPDEST, PUSH1 0, JUMP
	r := Build(code, DefaultOptions())
	main := Link(r)

	if !strings.Contains(main, "(block $1") {
		t.Errorf("expected block $1 for the single recorded segment, got %q", main)
	}
	if !strings.Contains(main, "(i32.eq (get_local $jump_dest) (i32.const 0)) (then (br $1))") {
		t.Errorf("expected dispatch test for jump_dest==0 -> br $1, got %q", main)
	}
	if !strings.Contains(main, "(set_local $jump_dest (i32.const -1))") {
		t.Errorf("expected jump_dest initialized to -1, got %q", main)
	}
}

func TestLinkTwoJumpdestsNestBlocksOutermostFirst(t *testing.T) {
	code := []byte{
		0x5b, 0x60, 0x00, 0x56, // JUMPDEST, PUSH1 0, JUMP
		0x5b, 0x00, // JUMPDEST, STOP
	}
	r := Build(code, DefaultOptions())
	main := Link(r)

	if !strings.Contains(main, "(block $2") || !strings.Contains(main, "(block $1") {
		t.Fatalf("expected both block $1 and block $2, got %q", main)
	}
	if strings.Index(main, "(block $2") > strings.Index(main, "(block $1") {
		t.Errorf("block $2 (outermost) must open before block $1 (innermost), got %q", main)
	}
}

func TestLinkCallbackTableAddsBrTable(t *testing.T) {
	code := []byte{0x54, 0x00} // SLOAD, STOP
	r := Build(code, Options{AsyncAPI: true, InlineOps: true})
	main := Link(r)

	if !strings.Contains(main, "br_table") {
		t.Errorf("expected a br_table dispatch when callbacks exist, got %q", main)
	}
	if !strings.Contains(main, "$cb_sel") {
		t.Errorf("expected a $cb_sel local for the callback selector, got %q", main)
	}
}

func TestLinkNoCallbacksOmitsBrTable(t *testing.T) {
	code := []byte{0x5b, 0x00} // JUMPDEST, STOP
	r := Build(code, DefaultOptions())
	main := Link(r)
	if strings.Contains(main, "br_table") {
		t.Errorf("expected no br_table without callbacks, got %q", main)
	}
}
