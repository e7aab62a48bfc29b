package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

type fieldRule int

const (
	ruleKeep   fieldRule = iota
	ruleMask             // replaced by a fixed marker
	ruleDigest           // replaced by a salted short hash so lines stay joinable
)

const masked = "[REDACTED]"

// scrubber rewrites structured log fields by key name. Rules match on
// substrings of the lower-cased key.
type scrubber struct {
	enabled bool
	salt    string
	mask    []string
	digest  []string
}

var (
	scrubOnce   sync.Once
	envScrubber *scrubber
)

func newScrubber(enabled bool, salt string) *scrubber {
	return &scrubber{
		enabled: enabled,
		salt:    salt,
		mask:    []string{"token", "authorization", "password", "secret", "cookie", "api_key", "apikey"},
		digest:  []string{"user_id", "owner_id", "actor", "email", "shared_with"},
	}
}

// scrub applies the process scrubber configured by LOG_REDACTION_ENABLED
// and LOG_HASH_SALT.
func scrub(kv []any) []any {
	scrubOnce.Do(func() {
		off := map[string]bool{"0": true, "false": true, "no": true, "off": true}
		enabled := !off[strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED")))]
		envScrubber = newScrubber(enabled, strings.TrimSpace(os.Getenv("LOG_HASH_SALT")))
	})
	return envScrubber.fields(kv)
}

func (s *scrubber) fields(kv []any) []any {
	if !s.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]any, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i+1 == len(kv) {
			out[i] = kv[i]
			break
		}
		key := stringify(kv[i])
		out[i] = key
		out[i+1] = s.value(strings.ToLower(key), kv[i+1])
	}
	return out
}

func (s *scrubber) rule(key string) fieldRule {
	if key == "" {
		return ruleKeep
	}
	for _, n := range s.mask {
		if strings.Contains(key, n) {
			return ruleMask
		}
	}
	for _, n := range s.digest {
		if strings.Contains(key, n) {
			return ruleDigest
		}
	}
	return ruleKeep
}

func (s *scrubber) value(key string, v any) any {
	rule := s.rule(key)
	if rule == ruleMask {
		return masked
	}
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = s.value(strings.ToLower(strings.TrimSpace(k)), inner)
		}
		return out
	case []string:
		if rule != ruleDigest {
			return t
		}
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = s.hash(item)
		}
		return out
	case string:
		if rule == ruleDigest {
			return s.hash(t)
		}
		if isBearerLike(t) {
			return masked
		}
		return t
	}
	if rule == ruleDigest {
		return s.hash(v)
	}
	return v
}

func (s *scrubber) hash(v any) string {
	raw := stringify(v)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

// isBearerLike spots three-segment JWTs in free-form values.
func isBearerLike(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
