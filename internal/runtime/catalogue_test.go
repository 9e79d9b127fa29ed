package runtime

import (
	"testing"

	"github.com/kyteague/evm2wasm/internal/opcode"
)

func TestClosureIncludesTransitiveDeps(t *testing.T) {
	got := Closure([]opcode.Kind{opcode.MUL})
	want := map[opcode.Kind]bool{opcode.MUL: true, mul256: true, CheckOverflow: true}
	if len(got) != len(want) {
		t.Fatalf("Closure(MUL) = %v, want 3 entries covering %v", got, want)
	}
	for _, k := range got {
		if !want[k] {
			t.Errorf("unexpected kind %s in closure", k)
		}
	}
}

func TestClosureIsIdempotent(t *testing.T) {
	first := Closure([]opcode.Kind{opcode.ADDMOD, opcode.KECCAK256})
	second := Closure(first)
	if len(first) != len(second) {
		t.Fatalf("closure not idempotent: first=%v second=%v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("closure order not stable: first=%v second=%v", first, second)
		}
	}
}

func TestClosureOrderIsInsertionOrder(t *testing.T) {
	got := Closure([]opcode.Kind{opcode.ADD, opcode.MUL})
	if got[0] != opcode.ADD {
		t.Fatalf("expected ADD first, got %v", got)
	}
}

func TestEveryNonIgnoredOpcodeHasACatalogueEntry(t *testing.T) {
	kinds := []opcode.Kind{
		opcode.ADD, opcode.MUL, opcode.SUB, opcode.DIV, opcode.SDIV, opcode.MOD, opcode.SMOD,
		opcode.ADDMOD, opcode.MULMOD, opcode.EXP, opcode.SIGNEXTEND,
		opcode.LT, opcode.GT, opcode.SLT, opcode.SGT, opcode.EQ, opcode.ISZERO,
		opcode.AND, opcode.OR, opcode.XOR, opcode.NOT, opcode.BYTE, opcode.SHL, opcode.SHR, opcode.SAR,
		opcode.KECCAK256, opcode.PUSH, opcode.DUP, opcode.SWAP, opcode.LOG,
		opcode.CALL, opcode.RETURN, opcode.REVERT, opcode.SELFDESTRUCT,
	}
	for _, k := range kinds {
		if _, ok := Catalogue[k]; !ok {
			t.Errorf("missing catalogue entry for %s", k)
		}
	}
}
