package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in       string
		dateOnly bool
		want     time.Time
		wantErr  bool
	}{
		{"2024-05-01", true, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{" 2024-05-01 ", true, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"2024-05-01T10:30:00Z", false, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), false},
		{"01/05/2024", false, time.Time{}, true},
		{"", false, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseDate() error = %v, want ErrInvalidDate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate() error = %v", err)
			}
			if got.DateOnly != tt.dateOnly || !got.Equal(tt.want) {
				t.Errorf("ParseDate() = %v (dateOnly %v), want %v (dateOnly %v)", got.Time, got.DateOnly, tt.want, tt.dateOnly)
			}
		})
	}
}

func TestDate_JSONKeepsLayout(t *testing.T) {
	var rule Rule
	data := `{"id":"r","initialDate":"2024-01-01","endDate":"2024-06-30T12:00:00Z","conditions":[]}`
	if err := json.Unmarshal([]byte(data), &rule); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back["initialDate"] != "2024-01-01" || back["endDate"] != "2024-06-30T12:00:00Z" {
		t.Errorf("dates = %v / %v", back["initialDate"], back["endDate"])
	}
}

func TestCondition_ComparisonValuePresence(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantSet bool
	}{
		{"absent", `{"ref":"a","operator":"exists"}`, false},
		{"explicit null", `{"ref":"a","operator":"=","comparisonValue":null}`, true},
		{"literal", `{"ref":"a","operator":"=","comparisonValue":0}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cond Condition
			if err := json.Unmarshal([]byte(tt.data), &cond); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got := cond.HasComparisonValue(); got != tt.wantSet {
				t.Fatalf("HasComparisonValue() = %v, want %v", got, tt.wantSet)
			}

			out, err := json.Marshal(cond)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var back Condition
			if err := json.Unmarshal(out, &back); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", out, err)
			}
			if back.HasComparisonValue() != tt.wantSet || back.Ref != cond.Ref || back.Operator != cond.Operator {
				t.Errorf("round trip %s = %+v, want %+v", out, back, cond)
			}
		})
	}
}

func TestEvaluationID(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewEvaluationID()

	parsed, err := ParseEvaluationID(string(id))
	if err != nil || parsed != id {
		t.Fatalf("ParseEvaluationID(%q) = %q, %v", id, parsed, err)
	}
	if ts := EvaluationIDTime(id); ts.Before(before) {
		t.Errorf("EvaluationIDTime() = %v, want after %v", ts, before)
	}

	if _, err := ParseEvaluationID("not-a-uuid"); err == nil {
		t.Error("ParseEvaluationID(invalid) error = nil")
	}
	if !EvaluationIDTime("bogus").IsZero() {
		t.Error("EvaluationIDTime(invalid) is not zero")
	}
}
