// internal/types/rules.go
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

/*
 * Domain types for rule evaluation.
 *
 * Provides Rule, Condition, Path and PathSegment structures used by
 * internal/rules for compilation and evaluation. These types are
 * wire-format agnostic: JSON/YAML decoding lives in internal/ruleset and the
 * gRPC boundary converts through JSON.
 *
 * Key types:
 *   - Rule: named conjunction of conditions with optional activation window
 *   - Condition: single comparison between a resolved ref and a literal or ref
 *   - Path: structured path (segments + side-context flag)
 *   - PathSegment: key, literal index, unbound traversal or loop binding
 *
 * Path dialects share one representation:
 *   - source:         clients[].age     -> {clients} {traverse} {age}
 *   - loop-annotated: clients[@0].age   -> {clients} {loop 0} {age}
 *   - instantiated:   clients.2.age     -> {clients} {index 2} {age}
 */

// Rule is a caller-owned rule definition.
type Rule struct {
	ID          string      `json:"id" yaml:"id"`
	Type        string      `json:"type" yaml:"type"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	InitialDate *Date       `json:"initialDate,omitempty" yaml:"initialDate,omitempty"`
	EndDate     *Date       `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	Conditions  []Condition `json:"conditions" yaml:"conditions"`
}

// Condition compares the value at Ref against either ComparisonValue or the
// value at ComparisonRef. ComparisonValue is set when it is non-nil or when
// ComparisonValueSet is true; decoding sets the flag for an explicit null.
type Condition struct {
	Ref                string `json:"ref" yaml:"ref"`
	Operator           string `json:"operator" yaml:"operator"`
	ComparisonValue    any    `json:"comparisonValue,omitempty" yaml:"comparisonValue,omitempty"`
	ComparisonValueSet bool   `json:"-" yaml:"-"`
	ComparisonRef      string `json:"comparisonRef,omitempty" yaml:"comparisonRef,omitempty"`
}

// HasComparisonValue reports whether a comparison literal was supplied,
// including an explicit null.
func (c Condition) HasComparisonValue() bool {
	return c.ComparisonValueSet || c.ComparisonValue != nil
}

type conditionJSON struct {
	Ref             string          `json:"ref"`
	Operator        string          `json:"operator"`
	ComparisonValue json.RawMessage `json:"comparisonValue,omitempty"`
	ComparisonRef   string          `json:"comparisonRef,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw conditionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Condition{Ref: raw.Ref, Operator: raw.Operator, ComparisonRef: raw.ComparisonRef}
	if raw.ComparisonValue != nil {
		out.ComparisonValueSet = true
		if err := json.Unmarshal(raw.ComparisonValue, &out.ComparisonValue); err != nil {
			return fmt.Errorf("comparisonValue: %w", err)
		}
	}
	*c = out
	return nil
}

// MarshalJSON implements json.Marshaler. An explicit null survives a round trip.
func (c Condition) MarshalJSON() ([]byte, error) {
	raw := conditionJSON{Ref: c.Ref, Operator: c.Operator, ComparisonRef: c.ComparisonRef}
	if c.HasComparisonValue() {
		value, err := json.Marshal(c.ComparisonValue)
		if err != nil {
			return nil, fmt.Errorf("comparisonValue: %w", err)
		}
		raw.ComparisonValue = value
	}
	return json.Marshal(raw)
}

// PathSegment represents one component of a path.
type PathSegment struct {
	Key      string // object key (mutually exclusive with the other kinds)
	Index    int    // literal array index, valid when IsIndex
	IsIndex  bool   // disambiguates Index=0 from unset
	Traverse bool   // unbound array traversal marker ("[]")
	Loop     int    // loop ordinal, valid when IsLoop
	IsLoop   bool   // traversal bound to a discovered loop ("[@K]")
}

// Path is a parsed reference into the document or the side context.
type Path struct {
	Context  bool // resolve against the side context
	Segments []PathSegment
}

// IsZero reports whether the path is empty (an unset comparisonRef).
func (p Path) IsZero() bool {
	return !p.Context && len(p.Segments) == 0
}

// Clone returns a path with an independently allocated segment slice.
func (p Path) Clone() Path {
	segs := make([]PathSegment, len(p.Segments))
	copy(segs, p.Segments)
	return Path{Context: p.Context, Segments: segs}
}

// String renders the path in its authored dialect: traversals as "[]", loop
// bindings as "[@K]" and literal indices as ".N".
func (p Path) String() string {
	var b strings.Builder
	if p.Context {
		b.WriteString(ContextPrefix)
	}
	writeSegments(&b, p.Segments)
	return b.String()
}

func writeSegments(b *strings.Builder, segs []PathSegment) {
	for i, seg := range segs {
		switch {
		case seg.Traverse:
			b.WriteString("[]")
		case seg.IsLoop:
			b.WriteString("[@")
			b.WriteString(strconv.Itoa(seg.Loop))
			b.WriteString("]")
		case seg.IsIndex:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(strconv.Itoa(seg.Index))
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Key)
		}
	}
}

// Date is an activation bound. It accepts RFC 3339 timestamps and plain
// dates (2006-01-02); DateOnly records the latter so end bounds can cover
// the whole day.
type Date struct {
	time.Time
	DateOnly bool
}

const dateLayout = "2006-01-02"

// ParseDate parses an RFC 3339 timestamp or a 2006-01-02 date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t, DateOnly: true}, nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// String renders the date in the layout it was parsed from.
func (d Date) String() string {
	if d.DateOnly {
		return d.Format(dateLayout)
	}
	return d.Format(time.RFC3339)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for YAML encoders.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for YAML decoders.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
