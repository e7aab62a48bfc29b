package logger

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestScrubberRules(t *testing.T) {
	s := newScrubber(true, "salt")
	for _, key := range []string{"access_token", "jwt_secret", "authorization"} {
		if got := s.value(key, "abc"); got != masked {
			t.Errorf("%s: got %v", key, got)
		}
	}
	if got := s.value("document_id", "plain"); got != "plain" {
		t.Errorf("plain value changed: %v", got)
	}
	if got := s.value("detail", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"); got != masked {
		t.Errorf("jwt-looking detail kept: %v", got)
	}
}

func TestScrubberDigestsIdentities(t *testing.T) {
	s := newScrubber(true, "salt")
	first, ok := s.value("owner_email", "a@example.com").(string)
	if !ok || !strings.HasPrefix(first, "hash:") || len(first) != len("hash:")+12 {
		t.Fatalf("email digest=%v", first)
	}
	if again := s.value("owner_email", "a@example.com"); again != first {
		t.Fatalf("digest unstable: %v vs %v", first, again)
	}
	if other := newScrubber(true, "pepper").value("owner_email", "a@example.com"); other == first {
		t.Fatal("salt ignored")
	}
	list, ok := s.value("shared_with", []string{"b@example.com"}).([]string)
	if !ok || len(list) != 1 || !strings.HasPrefix(list[0], "hash:") {
		t.Fatalf("shared_with=%v", list)
	}
	if id, _ := s.value("actor", uuid.New()).(string); !strings.HasPrefix(id, "hash:") {
		t.Fatalf("actor uuid digest=%v", id)
	}
}

func TestScrubberFields(t *testing.T) {
	s := newScrubber(true, "")
	out := s.fields([]any{"doc", "x", "password", "hunter2", "orphan"})
	if len(out) != 5 || out[3] != masked || out[4] != "orphan" {
		t.Fatalf("fields=%v", out)
	}
	in := []any{"password", "hunter2"}
	if got := newScrubber(false, "").fields(in); got[1] != "hunter2" {
		t.Fatalf("disabled scrubber changed value: %v", got)
	}
}

func TestEnvLevel(t *testing.T) {
	if envLevel("warn").String() != "warn" || envLevel("").String() != "debug" || envLevel("loud").String() != "debug" {
		t.Fatal("unexpected level parsing")
	}
}

func TestNopLogger(t *testing.T) {
	l := Nop().With("component", "test")
	l.Info("hello", "k", "v")
	l.Sync()
}
