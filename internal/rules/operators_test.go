package rules

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

func TestParseOperator(t *testing.T) {
	for name, want := range operatorNames {
		got, err := ParseOperator(name)
		if err != nil {
			t.Fatalf("ParseOperator(%q) error = %v", name, err)
		}
		if got != want {
			t.Errorf("ParseOperator(%q) = %v, want %v", name, got, want)
		}
		if got.String() != name {
			t.Errorf("String() = %q, want %q", got.String(), name)
		}
	}

	if _, err := ParseOperator("matches"); !errors.Is(err, types.ErrUnsupportedOperator) {
		t.Errorf("ParseOperator(matches) error = %v, want ErrUnsupportedOperator", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name  string
		op    Operator
		left  any
		right any
		want  bool
	}{
		{"eq numbers", OpEq, 1.0, 1.0, true},
		{"eq strings", OpEq, "abc", "abc", true},
		{"eq mismatched types", OpEq, "1", 1.0, false},
		{"eq arrays", OpEq, []any{1.0, "a"}, []any{1.0, "a"}, true},
		{"eq objects", OpEq, map[string]any{"a": 1.0}, map[string]any{"a": 1.0}, true},
		{"eq array vs scalar", OpEq, []any{1.0}, 1.0, false},
		{"eq nulls", OpEq, nil, nil, true},
		{"neq", OpNeq, 1.0, 2.0, true},
		{"neq equal", OpNeq, "x", "x", false},
		{"lt", OpLt, 1.0, 2.0, true},
		{"lt equal", OpLt, 2.0, 2.0, false},
		{"lte equal", OpLte, 2.0, 2.0, true},
		{"gt", OpGt, 3.0, 2.0, true},
		{"gte", OpGte, 2.0, 2.0, true},
		{"gt strings lexicographic", OpGt, "b", "a", true},
		{"gt incomparable", OpGt, "b", 1.0, false},
		{"lt incomparable", OpLt, true, 1.0, false},
		{"is_empty string", OpIsEmpty, "", nil, true},
		{"is_empty array", OpIsEmpty, []any{}, nil, true},
		{"is_empty object", OpIsEmpty, map[string]any{}, nil, true},
		{"is_empty number", OpIsEmpty, 0.0, nil, false},
		{"is_not_empty array", OpIsNotEmpty, []any{1.0}, nil, true},
		{"is_not_empty number", OpIsNotEmpty, 1.0, nil, false},
		{"contains substring", OpContains, "hello world", "world", true},
		{"contains element", OpContains, []any{"a", "b"}, "b", true},
		{"contains object key", OpContains, map[string]any{"Key": 1.0}, "key", true},
		{"contains missing", OpContains, []any{"a"}, "z", false},
		{"does_not_contains", OpDoesNotContain, []any{"a"}, "z", true},
		{"is_contained in array", OpIsContained, "b", []any{"a", "b"}, true},
		{"is_contained in string", OpIsContained, "ell", "hello", true},
		{"in array", OpIn, 2.0, []any{1.0, 2.0}, true},
		{"in substring", OpIn, "ell", "hello", true},
		{"in scalar set", OpIn, 2.0, 2.0, false},
		{"not_in", OpNotIn, 3.0, []any{1.0, 2.0}, true},
		{"exists", OpExists, nil, nil, true},
		{"does_not_exists on present", OpDoesNotExist, 1.0, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.op, tt.left, tt.right)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare(%v, %v, %v) = %v, want %v", tt.op, tt.left, tt.right, got, tt.want)
			}
		})
	}
}

func TestCompare_Unsupported(t *testing.T) {
	if _, err := Compare(OpUnspecified, 1.0, 1.0); !errors.Is(err, types.ErrUnsupportedOperator) {
		t.Errorf("Compare(OpUnspecified) error = %v, want ErrUnsupportedOperator", err)
	}
}

// Property-based test: <> is the negation of = and < / >= are complementary
// for numbers.
func TestCompare_PropertyComplements(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("complementary operators disagree", prop.ForAll(
		func(a, b int) bool {
			l, r := float64(a), float64(b)
			eq, _ := Compare(OpEq, l, r)
			neq, _ := Compare(OpNeq, l, r)
			lt, _ := Compare(OpLt, l, r)
			gte, _ := Compare(OpGte, l, r)
			return eq != neq && lt != gte
		},
		gen.IntRange(-50, 50),
		gen.IntRange(-50, 50),
	))

	properties.TestingRun(t)
}

func TestOperator_IsExistence(t *testing.T) {
	for name, op := range operatorNames {
		want := name == "exists" || name == "does_not_exists"
		if got := op.IsExistence(); got != want {
			t.Errorf("%s.IsExistence() = %v, want %v", name, got, want)
		}
	}
}
