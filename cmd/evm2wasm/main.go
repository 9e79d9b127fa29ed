// Command evm2wasm is the CLI front end for the evm2wasm translator.
//
// Usage:
//
//	evm2wasm <evm-file> [--wast]
//
// Reads evm-file as raw EVM bytecode bytes. Without --wast, prints the
// assembled Wasm binary to standard output; with --wast, prints the WAST
// text instead.
package main

import (
	"flag"
	"fmt"
	"os"

	gethlog "github.com/ethereum/go-ethereum/log"

	"github.com/kyteague/evm2wasm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. This pattern
// makes it easy to test the binary without calling os.Exit directly.
func run(args []string) int {
	fs := flag.NewFlagSet("evm2wasm", flag.ContinueOnError)
	wast := fs.Bool("wast", false, "print WAST text instead of the Wasm binary")
	stackTrace := fs.Bool("stack-trace", false, "emit stack-trace calls into the translated module")
	// Flags may come before or after the file argument, so parsing
	// resumes after each positional argument.
	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return 1
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		rest = fs.Args()[1:]
	}

	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "usage: evm2wasm <evm-file> [--wast] [--stack-trace]")
		return 1
	}

	path := positional[0]
	code, err := os.ReadFile(path)
	if err != nil {
		gethlog.Error("failed to read bytecode file", "path", path, "err", err)
		return 1
	}

	opts := evm2wasm.DefaultOptions()
	opts.StackTrace = *stackTrace
	gethlog.Info("translating bytecode", "path", path, "bytes", len(code), "wast", *wast, "stackTrace", *stackTrace)

	if *wast {
		fmt.Print(evm2wasm.EVM2Wast(code, opts))
		return 0
	}

	wasm := evm2wasm.EVM2Wasm(code, opts.StackTrace)
	if wasm == nil {
		gethlog.Error("translation failed to produce a valid Wasm module", "path", path)
		return 1
	}
	os.Stdout.Write(wasm)
	return 0
}
