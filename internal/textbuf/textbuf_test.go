package textbuf

import "testing"

func TestAppendAndPrepend(t *testing.T) {
	b := New()
	b.Append("body")
	b.Prepend("guard ")
	b.Prepend("gas ")
	if got, want := b.String(), "gas guard body"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestResetClearsPieces(t *testing.T) {
	b := New()
	b.Append("x")
	b.Reset()
	if b.Len() != 0 || b.String() != "" {
		t.Errorf("Reset() left Len()=%d String()=%q", b.Len(), b.String())
	}
}
