package services

import (
	"net/http"
	"testing"
)

func TestStaffGate(t *testing.T) {
	g := testStaff(t)
	if err := g.Verify(testStaffPin); err != nil {
		t.Fatalf("Verify(correct): %v", err)
	}
	if err := g.Verify(" " + testStaffPin + " "); err != nil {
		t.Fatalf("Verify(padded): %v", err)
	}
	wantAPIErr(t, "Verify(wrong)", g.Verify("1111"), http.StatusUnauthorized, "invalid_staff_pin")
	wantAPIErr(t, "Verify(empty)", g.Verify(""), http.StatusUnauthorized, "invalid_staff_pin")

	if _, err := NewStaffGate("  "); err == nil {
		t.Fatalf("NewStaffGate(blank): expected error")
	}
}
