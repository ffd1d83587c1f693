package rules

import (
	"testing"
	"time"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

func mustDate(t *testing.T, s string) *types.Date {
	t.Helper()
	d, err := types.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", s, err)
	}
	return &d
}

func TestActive(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		end     string
		now     time.Time
		want    bool
	}{
		{"unbounded", "", "", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"before initial", "2024-05-02", "", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"on initial", "2024-05-01", "", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"late on date-only end", "", "2024-05-01", time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC), true},
		{"day after date-only end", "", "2024-05-01", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), false},
		{"exactly on timestamp end", "", "2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), true},
		{"after timestamp end", "", "2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 1, 0, time.UTC), false},
		{"inside both bounds", "2024-01-01", "2024-12-31", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &types.Rule{ID: "r"}
			if tt.initial != "" {
				rule.InitialDate = mustDate(t, tt.initial)
			}
			if tt.end != "" {
				rule.EndDate = mustDate(t, tt.end)
			}
			if got := Active(rule, tt.now); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}
