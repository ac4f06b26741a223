package sentry

import (
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"
)

const redacted = "[REDACTED]"

var (
	// Command text reaches error messages through %q
	quotedPattern = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	homePattern   = regexp.MustCompile(`(/home/|/Users/|\\Users\\)[^/\\\s]+`)
)

// sensitiveFields are extra/breadcrumb keys dropped outright
var sensitiveFields = []string{"cmd", "command", "query", "pwd", "dir", "path", "session"}

// scrub removes quoted text and user names in home directory paths
func scrub(value string) string {
	if value == "" {
		return value
	}
	value = quotedPattern.ReplaceAllString(value, `"`+redacted+`"`)
	value = homePattern.ReplaceAllString(value, "${1}[USER]")
	return value
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(k, field) {
			return true
		}
	}
	return false
}

func scrubMap(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}

	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case string:
			if isSensitiveKey(key) {
				out[key] = redacted
			} else {
				out[key] = scrub(v)
			}
		default:
			if isSensitiveKey(key) {
				out[key] = redacted
			} else {
				out[key] = value
			}
		}
	}
	return out
}

// scrubEvent strips command text and personal data from an event
func scrubEvent(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}

	event.Message = scrub(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = scrub(event.Exception[i].Value)
	}
	for key, value := range event.Tags {
		if isSensitiveKey(key) {
			event.Tags[key] = redacted
		} else {
			event.Tags[key] = scrub(value)
		}
	}
	event.Extra = scrubMap(event.Extra)
	for _, b := range event.Breadcrumbs {
		scrubBreadcrumb(b)
	}

	event.User = sentry.User{}
	event.ServerName = ""

	return event
}

func scrubBreadcrumb(b *sentry.Breadcrumb) *sentry.Breadcrumb {
	if b == nil {
		return nil
	}
	b.Message = scrub(b.Message)
	b.Data = scrubMap(b.Data)
	return b
}
