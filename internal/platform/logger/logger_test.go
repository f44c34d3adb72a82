package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSanitizeRedactsSecretsAndHashesIDs(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "true")

	out := sanitizeKVs([]interface{}{
		"staff_pin", "1234",
		"user_id", "U0123456789",
		"path", "/api/stamps",
	})
	if len(out) != 6 {
		t.Fatalf("unexpected length: %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("staff_pin not redacted: %v", out[1])
	}
	hashed, ok := out[3].(string)
	if !ok || len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id not hashed: %v", out[3])
	}
	if out[5] != "/api/stamps" {
		t.Fatalf("path should pass through: %v", out[5])
	}
}

func TestSanitizeRedactsJWTLikeValues(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "true")

	jwtish := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJVMTIzNDU2In0.signature"
	out := sanitizeKVs([]interface{}{"value", jwtish})
	if out[1] != "[REDACTED]" {
		t.Fatalf("expected jwt-like value to be redacted, got %v", out[1])
	}
}

func TestSanitizePatientFields(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "true")

	out := sanitizeKVs([]interface{}{
		"next_memo", "歯石除去の予定",
		"line_user_id", "U0123456789",
		"family_id", "5f0c6f0e-9d4e-4c38-9f0a-1b2c3d4e5f60",
		"subscribers", 3,
	})
	if out[1] != "[REDACTED]" {
		t.Fatalf("memo not redacted: %v", out[1])
	}
	if s, _ := out[3].(string); len(s) < 5 || s[:5] != "hash:" {
		t.Fatalf("line_user_id not hashed: %v", out[3])
	}
	if s, _ := out[5].(string); len(s) < 5 || s[:5] != "hash:" {
		t.Fatalf("family_id not hashed: %v", out[5])
	}
	if out[7] != 3 {
		t.Fatalf("subscribers should pass through: %v", out[7])
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	if got := levelFromEnv(zapcore.InfoLevel); got != zapcore.WarnLevel {
		t.Fatalf("levelFromEnv = %v, want warn", got)
	}
	t.Setenv("LOG_LEVEL", "loud")
	if got := levelFromEnv(zapcore.InfoLevel); got != zapcore.InfoLevel {
		t.Fatalf("levelFromEnv(bad) = %v, want info", got)
	}
}
