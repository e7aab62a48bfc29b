package envutil

import (
	"testing"
	"time"
)

func TestDurationAcceptsSecondsAndGoSyntax(t *testing.T) {
	t.Setenv("SCD_TEST_DUR", "90")
	if got := Duration("SCD_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("seconds: want=90s got=%v", got)
	}
	t.Setenv("SCD_TEST_DUR", "2m")
	if got := Duration("SCD_TEST_DUR", time.Second); got != 2*time.Minute {
		t.Fatalf("go syntax: want=2m got=%v", got)
	}
	t.Setenv("SCD_TEST_DUR", "bogus")
	if got := Duration("SCD_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("fallback: want=1s got=%v", got)
	}
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("SCD_TEST_BOOL", "yes")
	if !Bool("SCD_TEST_BOOL", false) {
		t.Fatalf("bool: want=true")
	}
	t.Setenv("SCD_TEST_BOOL", "maybe")
	if Bool("SCD_TEST_BOOL", false) {
		t.Fatalf("bool fallback: want=false")
	}
	t.Setenv("SCD_TEST_LIST", " a, ,b ")
	got := List("SCD_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("list: got=%v", got)
	}
}

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SCD_TEST_INT", "x")
	if got := Int("SCD_TEST_INT", 7); got != 7 {
		t.Fatalf("int: want=7 got=%d", got)
	}
}
