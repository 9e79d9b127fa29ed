package translator

import (
	"strings"
	"testing"
)

func TestAssembleAlwaysImportsUseGas(t *testing.T) {
	r := Build([]byte{0x00}, DefaultOptions())
	main := Link(r)
	mod := Assemble(r, main, DefaultOptions())

	if !strings.Contains(mod, `(import "ethereum" "useGas" (func $useGas (param i64)))`) {
		t.Errorf("expected useGas import in every module, got %q", mod)
	}
	if strings.Contains(mod, "printMemHex") {
		t.Errorf("debug imports must not appear without stack_trace, got %q", mod)
	}
}

func TestAssembleStackTraceAddsDebugImports(t *testing.T) {
	opts := Options{StackTrace: true, InlineOps: true}
	r := Build([]byte{0x00}, opts)
	main := Link(r)
	mod := Assemble(r, main, opts)

	for _, want := range []string{"printMemHex", `"debug" "print"`, "evmTrace"} {
		if !strings.Contains(mod, want) {
			t.Errorf("expected debug import containing %q, got %q", want, mod)
		}
	}
}

func TestAssembleIncludesDependencyClosureSnippets(t *testing.T) {
	code := []byte{0x60, 0x01, 0x60, 0x02, 0x02, 0x00} // PUSH1 1, PUSH1 2, MUL, STOP
	r := Build(code, DefaultOptions())
	main := Link(r)
	mod := Assemble(r, main, DefaultOptions())

	for _, want := range []string{"$mul", "$mul_256", "$check_overflow"} {
		if !strings.Contains(mod, want) {
			t.Errorf("expected MUL's transitive dependency %q in the assembled module, got %q", want, mod)
		}
	}
}

func TestAssembleIncludesCheckOverflowForJumpWithoutMul(t *testing.T) {
	code := []byte{0x5b, 0x60, 0x00, 0x56} // JUMPDEST, PUSH1 0, JUMP
	r := Build(code, DefaultOptions())
	main := Link(r)
	mod := Assemble(r, main, DefaultOptions())

	if !strings.Contains(mod, "$check_overflow") {
		t.Errorf("expected check_overflow's snippet in a module using JUMP but no MUL/ADDMOD/MULMOD/EXP, got %q", mod)
	}
}

func TestAssembleOmitsCallbackTableWhenEmpty(t *testing.T) {
	r := Build([]byte{0x00}, DefaultOptions())
	main := Link(r)
	mod := Assemble(r, main, DefaultOptions())
	if strings.Contains(mod, `(table (export "callback")`) {
		t.Errorf("expected no callback table export without async callbacks, got %q", mod)
	}
}

func TestAssembleEmitsCallbackTableWhenPresent(t *testing.T) {
	opts := Options{AsyncAPI: true, InlineOps: true}
	r := Build([]byte{0x54, 0x00}, opts) // SLOAD, STOP
	main := Link(r)
	mod := Assemble(r, main, opts)

	if !strings.Contains(mod, `(table (export "callback")`) {
		t.Errorf("expected a callback table export, got %q", mod)
	}
	if !strings.Contains(mod, "$resume_sload") {
		t.Errorf("expected $resume_sload in the callback table elements, got %q", mod)
	}
}

func TestAssembleExportsMainAndMemory(t *testing.T) {
	r := Build([]byte{0x00}, DefaultOptions())
	main := Link(r)
	mod := Assemble(r, main, DefaultOptions())

	if !strings.Contains(mod, `(memory (export "memory") 500)`) {
		t.Errorf("expected 500-page memory export, got %q", mod)
	}
	if !strings.Contains(mod, `(export "main" (func $main))`) {
		t.Errorf("expected main export, got %q", mod)
	}
}
