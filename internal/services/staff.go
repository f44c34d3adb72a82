package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
)

// StaffGate checks the shared clinic staff PIN.
type StaffGate interface {
	Verify(pin string) error
}

type staffGate struct {
	hash []byte
}

func NewStaffGate(pin string) (StaffGate, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, fmt.Errorf("STAFF_PIN is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash staff pin: %w", err)
	}
	return &staffGate{hash: hash}, nil
}

func (g *staffGate) Verify(pin string) error {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return apierr.New(http.StatusUnauthorized, "invalid_staff_pin", errors.New("staff PIN required"))
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(pin)); err != nil {
		return apierr.New(http.StatusUnauthorized, "invalid_staff_pin", errors.New("暗証番号が正しくありません"))
	}
	return nil
}
