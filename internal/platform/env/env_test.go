package env

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv("QEAPP_TEST_STRING", "value")
	if got := String("QEAPP_TEST_STRING", "def"); got != "value" {
		t.Fatalf("String=%q, want value", got)
	}
	t.Setenv("QEAPP_TEST_STRING", "   ")
	if got := String("QEAPP_TEST_STRING", "def"); got != "def" {
		t.Fatalf("String(blank)=%q, want default", got)
	}
	if got := String("QEAPP_TEST_STRING_UNSET", "def"); got != "def" {
		t.Fatalf("String(unset)=%q, want default", got)
	}
}

func TestTypedLookups(t *testing.T) {
	t.Setenv("QEAPP_TEST_INT", "42")
	if got, err := Int("QEAPP_TEST_INT", 1); err != nil || got != 42 {
		t.Fatalf("Int=%d err=%v, want 42", got, err)
	}
	if got, err := Int("QEAPP_TEST_INT_UNSET", 7); err != nil || got != 7 {
		t.Fatalf("Int(unset)=%d err=%v, want default 7", got, err)
	}

	t.Setenv("QEAPP_TEST_BOOL", "true")
	if got, err := Bool("QEAPP_TEST_BOOL", false); err != nil || !got {
		t.Fatalf("Bool=%v err=%v, want true", got, err)
	}

	t.Setenv("QEAPP_TEST_DURATION", "90s")
	if got, err := Duration("QEAPP_TEST_DURATION", time.Second); err != nil || got != 90*time.Second {
		t.Fatalf("Duration=%v err=%v, want 90s", got, err)
	}
}

func TestParseError(t *testing.T) {
	t.Setenv("QEAPP_TEST_INT", "not-a-number")
	if _, err := Int("QEAPP_TEST_INT", 1); err == nil {
		t.Fatal("expected parse error")
	}
	t.Setenv("QEAPP_TEST_DURATION", "soon")
	if _, err := Duration("QEAPP_TEST_DURATION", time.Second); err == nil {
		t.Fatal("expected parse error")
	}
}
