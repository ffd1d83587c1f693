// internal/rules/window.go
package rules

import (
	"time"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

// Active reports whether now falls inside the rule's activation window.
// Both bounds are inclusive and optional. A date-only end bound covers the
// whole day, so a rule ending 2024-12-31 is still active at 23:59 UTC.
func Active(rule *types.Rule, now time.Time) bool {
	if rule.InitialDate != nil && now.Before(rule.InitialDate.Time) {
		return false
	}
	if rule.EndDate != nil {
		end := rule.EndDate.Time
		if rule.EndDate.DateOnly {
			return now.Before(end.AddDate(0, 0, 1))
		}
		if now.After(end) {
			return false
		}
	}
	return true
}
