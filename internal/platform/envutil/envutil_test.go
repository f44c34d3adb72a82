package envutil

import (
	"reflect"
	"testing"
	"time"
)

func TestReadersFallBackToDefaults(t *testing.T) {
	t.Setenv("STAMP_TEST_INT", "abc")
	t.Setenv("STAMP_TEST_BOOL", "maybe")
	t.Setenv("STAMP_TEST_LIST", " , ")

	if got := Int("STAMP_TEST_INT", 7); got != 7 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Bool("STAMP_TEST_BOOL", true); !got {
		t.Fatalf("Bool: got=%v", got)
	}
	if got := List("STAMP_TEST_LIST", []string{"x"}); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("List: got=%v", got)
	}
	if got := String("STAMP_TEST_MISSING", "def"); got != "def" {
		t.Fatalf("String: got=%q", got)
	}
}

func TestReadersParseValues(t *testing.T) {
	t.Setenv("STAMP_TEST_INT", "42")
	t.Setenv("STAMP_TEST_BOOL", "off")
	t.Setenv("STAMP_TEST_SECS", "90")
	t.Setenv("STAMP_TEST_LIST", "https://a.example, https://b.example")

	if got := Int("STAMP_TEST_INT", 0); got != 42 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Bool("STAMP_TEST_BOOL", true); got {
		t.Fatalf("Bool: got=%v", got)
	}
	if got := Seconds("STAMP_TEST_SECS", time.Second); got != 90*time.Second {
		t.Fatalf("Seconds: got=%v", got)
	}
	want := []string{"https://a.example", "https://b.example"}
	if got := List("STAMP_TEST_LIST", nil); !reflect.DeepEqual(got, want) {
		t.Fatalf("List: got=%v", got)
	}
}
