package util

import "testing"

func TestHashKeyDeterministic(t *testing.T) {
	a := HashKey("vendor@example.com")
	b := HashKey("vendor@example.com")
	if a != b {
		t.Fatalf("expected identical hashes, got %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashKey("other@example.com") {
		t.Fatalf("different inputs must not collide on trivial cases")
	}
}

func TestSanitizeFileName(t *testing.T) {
	if _, err := SanitizeFileName("../../etc/passwd"); err == nil {
		t.Fatalf("expected traversal rejection")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected empty name rejection")
	}
	got, err := SanitizeFileName(`dir/sub\quote.pdf`)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "dir_sub_quote.pdf" {
		t.Fatalf("unexpected sanitized name: %s", got)
	}
}
