package rules

import (
	"encoding/json"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{name: "string lower-cased", value: "ABC", want: "abc"},
		{name: "float64 passthrough", value: 42.5, want: 42.5},
		{name: "int widened", value: 100, want: 100.0},
		{name: "int64 widened", value: int64(999), want: 999.0},
		{name: "uint64 widened", value: uint64(7), want: 7.0},
		{name: "float32 widened", value: float32(0.5), want: 0.5},
		{name: "json.Number widened", value: json.Number("12"), want: 12.0},
		{name: "bool passthrough", value: true, want: true},
		{name: "nil passthrough", value: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.value); got != tt.want {
				t.Errorf("normalize(%v) = %v (%T), want %v (%T)", tt.value, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestNormalize_Collections(t *testing.T) {
	input := map[string]any{
		"Name": "ALICE",
		"tags": []any{"X", 1},
	}

	got := normalize(input).(map[string]any)

	if got["Name"] != "alice" {
		t.Errorf("Name = %v, want alice", got["Name"])
	}
	tags := got["tags"].([]any)
	if tags[0] != "x" || tags[1] != 1.0 {
		t.Errorf("tags = %v, want [x 1]", tags)
	}

	// Input must be untouched
	if input["Name"] != "ALICE" {
		t.Errorf("input Name mutated to %v", input["Name"])
	}
	if input["tags"].([]any)[0] != "X" {
		t.Errorf("input tags mutated to %v", input["tags"])
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   float64
		wantOK bool
	}{
		{"float64", 1.5, 1.5, true},
		{"int32", int32(-3), -3, true},
		{"uint", uint(3), 3, true},
		{"bad json.Number", json.Number("x"), 0, false},
		{"numeric string is not a number", "42", 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toFloat64(tt.value)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("toFloat64(%v) = %v, %v, want %v, %v", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   int
		wantOK bool
	}{
		{"empty string", "", 0, true},
		{"multibyte string", "héllo", 5, true},
		{"array", []any{1, 2, 3}, 3, true},
		{"object", map[string]any{"a": 1}, 1, true},
		{"number", 5.0, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := length(tt.value)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("length(%v) = %v, %v, want %v, %v", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
