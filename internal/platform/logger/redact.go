package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// redactor scrubs log fields. Credentials are dropped, session ids are hashed
// and user-authored text (ideas, answers, prompts) is reduced to its length.
type redactor struct {
	enabled bool
	salt    string
}

var (
	secretKeys = []string{"api_key", "apikey", "authorization", "password", "secret", "token", "dsn"}
	hashedKeys = []string{"session_id"}
	textKeys   = []string{"idea", "final_prompt", "prompt", "answer", "selected_option"}
)

func redactorFromEnv() *redactor {
	r := &redactor{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		r.enabled = false
	}
	return r
}

func (r *redactor) apply(kv []interface{}) []interface{} {
	if r == nil || !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		out[i+1] = r.value(strings.ToLower(strings.TrimSpace(key)), out[i+1])
	}
	return out
}

func (r *redactor) value(key string, val interface{}) interface{} {
	switch {
	case key == "":
		return val
	case matches(key, secretKeys):
		return "[REDACTED]"
	case matches(key, hashedKeys):
		return r.hash(val)
	case matches(key, textKeys):
		if s, ok := val.(string); ok {
			return fmt.Sprintf("[%d chars]", len([]rune(s)))
		}
	}
	if m, ok := val.(map[string]interface{}); ok {
		scrubbed := make(map[string]interface{}, len(m))
		for k, v := range m {
			scrubbed[k] = r.value(strings.ToLower(strings.TrimSpace(k)), v)
		}
		return scrubbed
	}
	return val
}

func (r *redactor) hash(val interface{}) string {
	raw := strings.TrimSpace(fmt.Sprint(val))
	if val == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

func matches(key string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}
