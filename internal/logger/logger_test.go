package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeKVs_Disabled(t *testing.T) {
	l := Nop()
	kv := []interface{}{"api_key", "sk-123", "student", "Ana"}
	got := l.sanitizeKVs(kv)
	if got[1] != "sk-123" || got[3] != "Ana" {
		t.Errorf("sanitizeKVs without redaction changed values: %v", got)
	}
}

func TestSanitizeKVs_Redacts(t *testing.T) {
	l := Nop()
	l.redact = true
	got := l.sanitizeKVs([]interface{}{"api_key", "sk-123", "student", "Ana", "subject", "Math", "dangling"})

	if got[1] != "[REDACTED]" {
		t.Errorf("api_key = %v, want [REDACTED]", got[1])
	}
	hashed, ok := got[3].(string)
	if !ok || !strings.HasPrefix(hashed, "hash:") {
		t.Errorf("student = %v, want hash: prefix", got[3])
	}
	if got[5] != "Math" {
		t.Errorf("subject = %v, want Math", got[5])
	}
	if len(got) != 7 || got[6] != "dangling" {
		t.Errorf("dangling key not preserved: %v", got)
	}
}

func TestHashValue_Stable(t *testing.T) {
	a := hashValue("salt", "Ana")
	b := hashValue("salt", "Ana")
	c := hashValue("other", "Ana")
	if a != b {
		t.Errorf("hashValue not stable: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("hashValue ignored salt")
	}
	if hashValue("salt", "") != "" {
		t.Errorf("hashValue of empty should be empty")
	}
}
