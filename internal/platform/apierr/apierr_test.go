package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessageFallbacks(t *testing.T) {
	if got := New(http.StatusBadRequest, "bad", errors.New("boom")).Error(); got != "boom" {
		t.Fatalf("with err: got=%q", got)
	}
	if got := New(http.StatusBadRequest, "bad", nil).Error(); got != "bad" {
		t.Fatalf("code only: got=%q", got)
	}
	if got := New(http.StatusTeapot, "", nil).Error(); got != "api error (418)" {
		t.Fatalf("status only: got=%q", got)
	}
	var nilErr *Error
	if got := nilErr.Error(); got != "" {
		t.Fatalf("nil receiver: got=%q", got)
	}
}

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	base := Newf(http.StatusNotFound, "profile_not_found", "profile %s not found", "U1")
	wrapped := fmt.Errorf("load: %w", base)

	ae, ok := From(wrapped)
	if !ok {
		t.Fatalf("From: expected match")
	}
	if ae.Status != http.StatusNotFound || ae.Code != "profile_not_found" {
		t.Fatalf("unexpected error: %+v", ae)
	}
	if ae.Error() != "profile U1 not found" {
		t.Fatalf("message: got=%q", ae.Error())
	}
	if _, ok := From(errors.New("plain")); ok {
		t.Fatalf("From: plain error should not match")
	}
}
