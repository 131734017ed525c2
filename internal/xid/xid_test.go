package xid

import (
	"strings"
	"testing"
)

func TestNewIsPrefixedAndUnique(t *testing.T) {
	a := New("req")
	b := New("req")
	if !strings.HasPrefix(a, "req-") {
		t.Fatalf("expected req- prefix, got %q", a)
	}
	if a == b {
		t.Fatalf("expected unique ids, got %q twice", a)
	}
	if len(New("")) != 32 {
		t.Fatalf("expected bare 32-char id, got %q", New(""))
	}
}

func TestValid(t *testing.T) {
	if !Valid(New("req")) {
		t.Fatalf("expected generated id to be valid")
	}
	for _, bad := range []string{"", "has space", "new\nline", strings.Repeat("a", 129)} {
		if Valid(bad) {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
