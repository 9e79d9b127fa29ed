package wasmbackend

import "testing"

func TestWast2WasmValidModule(t *testing.T) {
	text := `(module (func $main) (export "main" (func $main)))`
	got := Wast2Wasm(text, false)
	if got == nil {
		t.Fatal("expected non-nil bytes for a valid module")
	}
	if len(got) < 4 || string(got[:4]) != "\x00asm" {
		t.Errorf("expected a Wasm binary magic header, got %v", got)
	}
}

func TestWast2WasmInvalidTextReturnsNil(t *testing.T) {
	got := Wast2Wasm("(not valid wast at all", false)
	if got != nil {
		t.Errorf("expected nil bytes for unparseable WAST, got %v", got)
	}
}
