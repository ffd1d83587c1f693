package rules

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

func compileConditions(t *testing.T, conds ...types.Condition) []CompiledCondition {
	t.Helper()
	compiled, err := Compile(&types.Rule{ID: "test", Conditions: conds})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return compiled.Conditions
}

func TestDiscoverLoops_SharedArray(t *testing.T) {
	conds := compileConditions(t,
		types.Condition{Ref: "clients[].age", Operator: ">", ComparisonValue: 18.0},
		types.Condition{Ref: "clients[].name", Operator: "exists"},
	)

	loops := DiscoverLoops(conds, nil)

	if len(loops) != 1 {
		t.Fatalf("len(loops) = %d, want 1", len(loops))
	}
	if loops[0].ObjectName != "clients" || loops[0].CompleteObjectPath != "clients" {
		t.Errorf("loop = %+v", loops[0])
	}
	for i, c := range conds {
		if !strings.HasPrefix(c.Ref.String(), "clients[@0].") {
			t.Errorf("conds[%d].Ref = %q, want clients[@0] binding", i, c.Ref.String())
		}
	}
}

func TestDiscoverLoops_ComparisonRef(t *testing.T) {
	conds := compileConditions(t,
		types.Condition{Ref: "a[].x", Operator: "=", ComparisonRef: "b[].y"},
	)

	loops := DiscoverLoops(conds, nil)

	if len(loops) != 2 {
		t.Fatalf("len(loops) = %d, want 2", len(loops))
	}
	if conds[0].Ref.String() != "a[@0].x" || conds[0].ComparisonRef.String() != "b[@1].y" {
		t.Errorf("refs = %q / %q", conds[0].Ref.String(), conds[0].ComparisonRef.String())
	}
}

func TestDiscoverLoops_SortedByPath(t *testing.T) {
	conds := compileConditions(t,
		types.Condition{Ref: "zeta[].v", Operator: "exists"},
		types.Condition{Ref: "alpha[].v", Operator: "exists"},
	)

	loops := DiscoverLoops(conds, nil)

	if len(loops) != 2 {
		t.Fatalf("len(loops) = %d, want 2", len(loops))
	}
	if loops[0].CompleteObjectPath != "alpha" || loops[1].CompleteObjectPath != "zeta" {
		t.Errorf("order = %s, %s; want alpha, zeta", loops[0].CompleteObjectPath, loops[1].CompleteObjectPath)
	}
	// Ordinals keep discovery order
	if loops[0].Ordinal != 1 || loops[1].Ordinal != 0 {
		t.Errorf("ordinals = %d, %d; want 1, 0", loops[0].Ordinal, loops[1].Ordinal)
	}
}

func TestDiscoverLoops_Nested(t *testing.T) {
	conds := compileConditions(t,
		types.Condition{Ref: "orders[].items[].sku", Operator: "exists"},
		types.Condition{Ref: "orders[].id", Operator: "exists"},
	)

	loops := DiscoverLoops(conds, nil)

	if len(loops) != 2 {
		t.Fatalf("len(loops) = %d, want 2", len(loops))
	}
	if loops[0].CompleteObjectPath != "orders" {
		t.Errorf("loops[0] = %q, want orders", loops[0].CompleteObjectPath)
	}
	if loops[1].CompleteObjectPath != "orders[@0].items" {
		t.Errorf("loops[1] = %q, want orders[@0].items", loops[1].CompleteObjectPath)
	}
	if conds[0].Ref.String() != "orders[@0].items[@1].sku" {
		t.Errorf("conds[0].Ref = %q", conds[0].Ref.String())
	}
	if conds[1].Ref.String() != "orders[@0].id" {
		t.Errorf("conds[1].Ref = %q", conds[1].Ref.String())
	}
}

func TestDiscoverLoops_ObjectNameCollision(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	conds := compileConditions(t,
		types.Condition{Ref: "a.items[].x", Operator: "exists"},
		types.Condition{Ref: "b.items[].x", Operator: "exists"},
	)

	loops := DiscoverLoops(conds, logger)

	if len(loops) != 2 {
		t.Fatalf("len(loops) = %d, want 2 distinct loops", len(loops))
	}
	if !strings.Contains(buf.String(), "distinct arrays share an object name") {
		t.Errorf("expected collision warning, got log %q", buf.String())
	}
}

func TestDiscoverLoops_SideContextArray(t *testing.T) {
	conds := compileConditions(t,
		types.Condition{Ref: "_context.limits[].max", Operator: "exists"},
		types.Condition{Ref: "limits[].max", Operator: "exists"},
	)

	loops := DiscoverLoops(conds, nil)

	if len(loops) != 2 {
		t.Fatalf("len(loops) = %d, want 2 (document and side arrays differ)", len(loops))
	}
}

func TestDiscoverLoops_NoTraversal(t *testing.T) {
	conds := compileConditions(t,
		types.Condition{Ref: "a.b", Operator: "exists"},
		types.Condition{Ref: "c[0].d", Operator: "exists"},
	)

	if loops := DiscoverLoops(conds, nil); len(loops) != 0 {
		t.Errorf("len(loops) = %d, want 0", len(loops))
	}
}
