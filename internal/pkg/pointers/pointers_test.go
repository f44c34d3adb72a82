package pointers

import "testing"

func TestNonBlank(t *testing.T) {
	if got := NonBlank("   "); got != nil {
		t.Fatalf("NonBlank(blank) = %q, want nil", *got)
	}
	got := NonBlank("  A-102 ")
	if got == nil || *got != "A-102" {
		t.Fatalf("NonBlank = %v, want A-102", got)
	}
	if Deref(nil) != "" || Deref(got) != "A-102" {
		t.Fatalf("Deref mismatch")
	}
}
