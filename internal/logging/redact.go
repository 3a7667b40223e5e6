package logging

import (
	"regexp"
)

const redacted = "[REDACTED]"

// Field names whose values never reach the log output.
var sensitiveKeys = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|passwd|pwd)`),
	regexp.MustCompile(`(?i)(secret|token|authorization)`),
	regexp.MustCompile(`(?i)(api[_-]?key|credential)`),
}

func isSensitiveKey(key string) bool {
	for _, pattern := range sensitiveKeys {
		if pattern.MatchString(key) {
			return true
		}
	}
	return false
}

/* Redact returns a copy of fields with sensitive values replaced, descending into nested maps and slices */
func Redact(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}
	out := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		if isSensitiveKey(key) {
			out[key] = redacted
			continue
		}
		out[key] = redactValue(value)
	}
	return out
}

func redactValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return Redact(v)
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = redactValue(item)
		}
		return items
	}
	return value
}
