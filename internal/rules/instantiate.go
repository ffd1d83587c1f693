// internal/rules/instantiate.go
package rules

// Instantiate returns a concrete copy of cond for one context tuple: every
// segment bound to the loop at list position k becomes the literal index
// tuple[k], in both ref and comparisonRef. All occurrences are replaced,
// including repeated references to the same loop at different depths.
// comparisonValue passes through unchanged.
func Instantiate(cond CompiledCondition, loops []Loop, tuple []int) CompiledCondition {
	bindings := make(map[int]int, len(loops))
	for k, loop := range loops {
		if k < len(tuple) {
			bindings[loop.Ordinal] = tuple[k]
		}
	}

	out := cond
	out.Ref = bindPath(cond.Ref, bindings)
	if !cond.ComparisonRef.IsZero() {
		out.ComparisonRef = bindPath(cond.ComparisonRef, bindings)
	}
	return out
}
