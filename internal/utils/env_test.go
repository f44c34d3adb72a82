package utils

import "testing"

func TestGetEnvDefaultsAndParsing(t *testing.T) {
	t.Setenv("STAMPCARD_TEST_PORT", "9090")
	t.Setenv("STAMPCARD_TEST_FLAG", "yes")
	t.Setenv("STAMPCARD_TEST_BLANK", "   ")

	if got := GetEnv("STAMPCARD_TEST_BLANK", "fallback", nil); got != "fallback" {
		t.Fatalf("GetEnv blank: got=%q", got)
	}
	if got := GetEnvAsInt("STAMPCARD_TEST_PORT", 8080, nil); got != 9090 {
		t.Fatalf("GetEnvAsInt: got=%d", got)
	}
	if got := GetEnvAsBool("STAMPCARD_TEST_FLAG", false, nil); !got {
		t.Fatalf("GetEnvAsBool: got=%v", got)
	}
	if got := GetEnvAsBool("STAMPCARD_TEST_MISSING", true, nil); !got {
		t.Fatalf("GetEnvAsBool default: got=%v", got)
	}
}

func TestDisplayValueMasksSecrets(t *testing.T) {
	if got := displayValue("JWT_SECRET", "abc"); got != "<set>" {
		t.Fatalf("secret: got=%q", got)
	}
	if got := displayValue("STAFF_PIN", ""); got != "<empty>" {
		t.Fatalf("pin: got=%q", got)
	}
	if got := displayValue("PORT", "8080"); got != "8080" {
		t.Fatalf("port: got=%q", got)
	}
}
