package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunMissingFileReturnsExitCode1(t *testing.T) {
	if got := run([]string{"/no/such/file.evm"}); got != 1 {
		t.Errorf("run() = %d, want 1", got)
	}
}

func TestRunUsageErrorReturnsExitCode1(t *testing.T) {
	if got := run(nil); got != 1 {
		t.Errorf("run(nil) = %d, want 1", got)
	}
}

func TestRunWastFlagPrintsText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "code.evm")
	if err := os.WriteFile(path, []byte{0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := run([]string{"--wast", path}); got != 0 {
		t.Errorf("run(--wast) = %d, want 0", got)
	}
}
