// Package wasmbackend is the Binary Backend (spec.md §4.7): a thin wrapper
// over an external Wasm text assembler that parses WAST, validates the
// resulting module, and serializes it to the binary format. The real
// parse/validate/serialize pipeline is delegated entirely to
// wasmtime-go's Wat2Wasm, which implements all three stages internally;
// this package only adapts its error contract to spec.md §4.7's "empty
// bytes on any parse or validation failure" rule.
package wasmbackend

import (
	wasmtime "github.com/bytecodealliance/wasmtime-go"

	"github.com/kyteague/evm2wasm/log"
)

// Wast2Wasm parses text as WAST, validates it, and serializes it to the
// Wasm binary format. On any parse or validation failure it returns a nil
// slice; in debug mode the failure is also logged to the wasmbackend
// module logger (spec.md §7: "writes a diagnostic to standard error").
func Wast2Wasm(text string, debug bool) []byte {
	l := log.Module("wasmbackend")
	wasm, err := wasmtime.Wat2Wasm(text)
	if err != nil {
		if debug {
			l.Error("wat2wasm failed", "err", err)
		}
		return nil
	}
	return wasm
}
