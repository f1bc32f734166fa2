package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func studentSchema() *Schema {
	return &Schema{
		Name: "test-student",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"age":   map[string]any{"type": "integer", "minimum": 0},
				"grade": map[string]any{"type": "string", "enum": []any{"5", "6", "7"}},
				"scores": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []any{"name", "age"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"all fields", `{"name":"Alice","age":10,"grade":"5","scores":[1,2]}`, false},
		{"optional omitted", `{"name":"Bob","age":8}`, false},
		{"missing required", `{"name":"Cara"}`, true},
		{"wrong type", `{"name":"Dev","age":"ten"}`, true},
		{"bad enum", `{"name":"Eve","age":9,"grade":"12"}`, true},
		{"bad item type", `{"name":"Fin","age":9,"scores":["a"]}`, true},
		{"malformed json", `{not json}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(studentSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
				if string(inv.Content) != tt.raw {
					t.Fatalf("content = %q, want %q", inv.Content, tt.raw)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`anything`)); err != nil {
		t.Fatalf("nil schema should accept anything, got %v", err)
	}
}
