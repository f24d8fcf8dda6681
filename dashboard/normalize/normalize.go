// Package normalize turns free-form agent responses into the fixed record
// shapes the dashboard renders. The agent answers in whatever shape it feels
// like: a structured array, an artifacts envelope, or prose with key-value
// lines. Each entry point runs a cascade of shape detectors, first success
// wins, and total failure yields an empty slice rather than an error.
package normalize

import (
	"fmt"
	"strings"
	"time"
)

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func syntheticID(prefix string, index int) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixMilli(), index)
}

// deriveEmail builds a placeholder address from a display name: lower-case,
// runs of anything outside [a-z0-9] collapse to a single dot.
func deriveEmail(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDot := true // suppress a leading dot
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDot = false
			continue
		}
		if !lastDot {
			b.WriteByte('.')
			lastDot = true
		}
	}
	local := strings.TrimSuffix(b.String(), ".")
	return local + "@example.com"
}

func asString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func asFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func asMap(m map[string]any, key string) map[string]any {
	if v, ok := m[key]; ok {
		if mm, ok := v.(map[string]any); ok {
			return mm
		}
	}
	return nil
}

// objectsOf filters a decoded JSON array down to its object elements.
func objectsOf(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
