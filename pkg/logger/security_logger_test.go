package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityLogger_MaskLogMessage(t *testing.T) {
	sl := NewSecurityLogger(Nop())

	tests := []struct {
		name    string
		input   string
		notWant string
	}{
		{"bearer header", "Authorization: Bearer eyJhbGciOi.abc.def", "eyJhbGciOi"},
		{"json token", `{"access_token":"secret-value","x":1}`, "secret-value"},
		{"password kv", "password=hunter2 user=bob", "hunter2"},
		{"email", "login for alice@example.com failed", "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sl.MaskLogMessage(tt.input)
			assert.NotContains(t, got, tt.notWant)
		})
	}
}

func TestSecurityLogger_MaskEmail(t *testing.T) {
	sl := NewSecurityLogger(Nop())
	assert.Equal(t, "a***@example.com", sl.MaskEmail("alice@example.com"))
	assert.Equal(t, "***", sl.MaskEmail("not-an-email"))
	assert.Equal(t, "bo***", sl.MaskIdentifier("bob"))
}

func TestSecurityLogger_SafeInfoMasksFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLogger(NewWithWriter(Config{Level: "debug"}, &buf))

	sl.SafeInfo("session stored", map[string]interface{}{
		"access_token": "very-secret-token",
		"email":        "carol@example.com",
		"attempts":     2,
	})

	out := buf.String()
	assert.NotContains(t, out, "very-secret-token")
	assert.NotContains(t, out, "carol@example.com")
	assert.True(t, strings.Contains(out, "token#"+Fingerprint("very-secret-token")))
	assert.Contains(t, out, `"attempts":2`)
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "warn"}, &buf)

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
