package rules

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

func TestCompile(t *testing.T) {
	rule := &types.Rule{
		ID:          "rule-001",
		Type:        "alert",
		Description: "adult clients",
		Conditions: []types.Condition{
			{Ref: "clients[].age", Operator: ">=", ComparisonValue: 18.0},
			{Ref: "clients[].name", Operator: "=", ComparisonRef: "_context.name"},
		},
	}

	compiled, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}

	if compiled.ID != "rule-001" || compiled.Type != "alert" || compiled.Description != "adult clients" {
		t.Errorf("metadata = %q/%q/%q", compiled.ID, compiled.Type, compiled.Description)
	}
	if len(compiled.Conditions) != 2 {
		t.Fatalf("len(Conditions) = %d, want 2", len(compiled.Conditions))
	}

	c0 := compiled.Conditions[0]
	if c0.Operator != OpGte {
		t.Errorf("Conditions[0].Operator = %v, want >=", c0.Operator)
	}
	if !c0.HasComparisonValue || c0.ComparisonValue != 18.0 {
		t.Errorf("Conditions[0].ComparisonValue = %v (set %v)", c0.ComparisonValue, c0.HasComparisonValue)
	}
	if c0.Ref.String() != "clients[].age" {
		t.Errorf("Conditions[0].Ref = %q", c0.Ref.String())
	}

	c1 := compiled.Conditions[1]
	if c1.HasComparisonValue {
		t.Errorf("Conditions[1].HasComparisonValue = true, want false")
	}
	if !c1.ComparisonRef.Context || c1.ComparisonRef.String() != "_context.name" {
		t.Errorf("Conditions[1].ComparisonRef = %q", c1.ComparisonRef.String())
	}
	if c1.Index != 1 {
		t.Errorf("Conditions[1].Index = %d, want 1", c1.Index)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name      string
		rule      types.Rule
		wantErr   error
		condition int
	}{
		{
			name:    "empty id",
			rule:    types.Rule{ID: " ", Conditions: []types.Condition{{Ref: "a", Operator: "exists"}}},
			wantErr: types.ErrEmptyRuleID,
		},
		{
			name: "conflicting comparison",
			rule: types.Rule{ID: "r", Conditions: []types.Condition{
				{Ref: "a", Operator: "exists"},
				{Ref: "a", Operator: "=", ComparisonValue: 1.0, ComparisonRef: "b"},
			}},
			wantErr:   types.ErrConflictingComparison,
			condition: 1,
		},
		{
			name:    "unsupported operator",
			rule:    types.Rule{ID: "r", Conditions: []types.Condition{{Ref: "a", Operator: "~="}}},
			wantErr: types.ErrUnsupportedOperator,
		},
		{
			name:    "malformed ref",
			rule:    types.Rule{ID: "r", Conditions: []types.Condition{{Ref: "a..b", Operator: "exists"}}},
			wantErr: types.ErrInvalidPath,
		},
		{
			name:    "malformed comparisonRef",
			rule:    types.Rule{ID: "r", Conditions: []types.Condition{{Ref: "a", Operator: "=", ComparisonRef: "b["}}},
			wantErr: types.ErrInvalidPath,
		},
		{
			name:    "reserved loop placeholder",
			rule:    types.Rule{ID: "r", Conditions: []types.Condition{{Ref: "a[@0].b", Operator: "exists"}}},
			wantErr: types.ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(&tt.rule)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Compile() error = %v, want %v", err, tt.wantErr)
			}
			var condErr *ConditionError
			if errors.As(err, &condErr) && condErr.Condition != tt.condition {
				t.Errorf("ConditionError.Condition = %d, want %d", condErr.Condition, tt.condition)
			}
		})
	}
}

func TestCompile_ExplicitNullConflictsWithRef(t *testing.T) {
	var rule types.Rule
	data := `{"id":"r","conditions":[{"ref":"a","operator":"=","comparisonValue":null,"comparisonRef":"b"}]}`
	if err := json.Unmarshal([]byte(data), &rule); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	_, err := Compile(&rule)
	if !errors.Is(err, types.ErrConflictingComparison) {
		t.Fatalf("Compile() error = %v, want %v", err, types.ErrConflictingComparison)
	}

	data = `{"id":"r","conditions":[{"ref":"a","operator":"=","comparisonValue":null}]}`
	if err := json.Unmarshal([]byte(data), &rule); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	compiled, err := Compile(&rule)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if c := compiled.Conditions[0]; !c.HasComparisonValue || c.ComparisonValue != nil {
		t.Errorf("Conditions[0] = %v (set %v), want explicit null", c.ComparisonValue, c.HasComparisonValue)
	}
}

func TestCompile_DeepCopiesComparisonValue(t *testing.T) {
	list := []any{"a", map[string]any{"k": "v"}}
	rule := &types.Rule{
		ID:         "r",
		Conditions: []types.Condition{{Ref: "x", Operator: "in", ComparisonValue: list}},
	}

	compiled, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	copied := compiled.Conditions[0].ComparisonValue.([]any)
	copied[0] = "changed"
	copied[1].(map[string]any)["k"] = "changed"

	if list[0] != "a" || list[1].(map[string]any)["k"] != "v" {
		t.Errorf("caller comparisonValue mutated: %v", list)
	}
}

func TestCompile_LoopDiscoveryLeavesRuleUntouched(t *testing.T) {
	rule := &types.Rule{
		ID:         "r",
		Conditions: []types.Condition{{Ref: "clients[].age", Operator: ">", ComparisonValue: 1.0}},
	}

	compiled, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	DiscoverLoops(compiled.Conditions, nil)

	if compiled.Conditions[0].Ref.String() != "clients[@0].age" {
		t.Errorf("working copy Ref = %q, want clients[@0].age", compiled.Conditions[0].Ref.String())
	}
	if rule.Conditions[0].Ref != "clients[].age" {
		t.Errorf("caller Ref = %q, want clients[].age", rule.Conditions[0].Ref)
	}
}
