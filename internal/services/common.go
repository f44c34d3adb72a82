package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/stampcard-backend/internal/platform/apierr"
	"github.com/yungbote/stampcard-backend/internal/platform/ctxutil"
)

// actingUser resolves the authenticated profile id. A non-empty claimed id must match it.
func actingUser(ctx context.Context, claimed string) (string, error) {
	uid := ctxutil.UserID(ctx)
	if uid == "" {
		return "", apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("authentication required"))
	}
	if c := strings.TrimSpace(claimed); c != "" && c != uid {
		return "", apierr.New(http.StatusForbidden, "forbidden", errors.New("userId does not match the signed-in user"))
	}
	return uid, nil
}

func notFound(code, what string) error {
	return apierr.New(http.StatusNotFound, code, fmt.Errorf("%s not found", what))
}

func badRequest(code, msg string) error {
	return apierr.New(http.StatusBadRequest, code, errors.New(msg))
}

// passAPIErr lets an *apierr.Error returned inside a transaction escape unchanged.
func passAPIErr(err error, status int, code string) error {
	if err == nil {
		return nil
	}
	if _, ok := apierr.From(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.New(http.StatusNotFound, "not_found", err)
	}
	return apierr.New(status, code, err)
}
