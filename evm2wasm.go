// Package evm2wasm transpiles EVM bytecode into a Wasm module targeting a
// host that exposes an "ethereum" import namespace, as described in
// spec.md. It composes the three internal translator stages — segment
// building, jump linking, module assembly — into the two public entry
// points spec.md §6 names: EVM2Wast (text) and EVM2Wasm (binary).
package evm2wasm

import (
	"github.com/kyteague/evm2wasm/internal/translator"
	"github.com/kyteague/evm2wasm/internal/wasmbackend"
	"github.com/kyteague/evm2wasm/log"
)

// Options re-exports the translator's knobs so callers of this package
// never need to import internal/translator directly.
type Options = translator.Options

// DefaultOptions matches evm2wast's documented defaults: no stack trace, no
// async API, inline ops on.
func DefaultOptions() Options { return translator.DefaultOptions() }

// EVM2Wast partitions code into segments, lowers each opcode to WAST, links
// the segments under a dispatcher, and assembles a complete module. The
// result is deterministic: identical inputs always produce byte-identical
// output, since every stage is a pure function of its arguments plus the
// static opcode table and runtime catalogue.
func EVM2Wast(code []byte, opts Options) string {
	log.Module("evm2wasm").Debug("translating", "bytes", len(code), "stackTrace", opts.StackTrace, "asyncAPI", opts.AsyncAPI)
	result := translator.Build(code, opts)
	mainFn := translator.Link(result)
	return translator.Assemble(result, mainFn, opts)
}

// EVM2Wasm composes EVM2Wast with the Binary Backend: it translates code to
// WAST and assembles the Wasm binary. Per spec.md §4.7/§7, a WAST parse or
// validation failure yields a nil byte slice; callers must check for that.
func EVM2Wasm(code []byte, stackTrace bool) []byte {
	opts := DefaultOptions()
	opts.StackTrace = stackTrace
	wast := EVM2Wast(code, opts)
	return wasmbackend.Wast2Wasm(wast, false)
}
