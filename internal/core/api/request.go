package api

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ggerhardt/ajre-rules-engine/internal/rules"
	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

// evaluateRequest is a decoded Evaluate call.
type evaluateRequest struct {
	Document types.Document
	Rules    []types.Rule
	Context  types.Document
	Options  rules.Options
}

// parseRequest decodes {document, rules, context?, options?}. Options start
// from the configured engine defaults and may be overridden per call.
func (s *Service) parseRequest(req *structpb.Struct) (*evaluateRequest, error) {
	fields := req.GetFields()
	for key := range fields {
		switch key {
		case "document", "rules", "context", "options":
		default:
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidRequest, key)
		}
	}

	docValue, ok := fields["document"]
	if !ok {
		return nil, fmt.Errorf("%w: document is required", ErrInvalidRequest)
	}
	rulesValue, ok := fields["rules"]
	if !ok || rulesValue.GetListValue() == nil {
		return nil, fmt.Errorf("%w: rules must be a list", ErrInvalidRequest)
	}

	if n := len(rulesValue.GetListValue().GetValues()); n > s.server.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d rules exceeds maximum of %d", ErrBatchTooLarge, n, s.server.MaxBatchSize)
	}

	raw, err := json.Marshal(rulesValue.AsInterface())
	if err != nil {
		return nil, fmt.Errorf("%w: encode rules: %v", ErrInvalidRequest, err)
	}
	ruleList, err := s.loader.DecodeRules(raw)
	if err != nil {
		return nil, err
	}

	out := &evaluateRequest{
		Document: docValue.AsInterface(),
		Rules:    ruleList,
		Options:  s.engine.Options(),
	}
	if v, ok := fields["context"]; ok {
		out.Context = v.AsInterface()
	}
	if v, ok := fields["options"]; ok {
		if out.Options, err = parseOptions(v, out.Options); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// parseOptions applies {contextLimit, timeLimit, returnAllContexts,
// timeBudget} over base. timeLimit is in seconds.
func parseOptions(v *structpb.Value, base rules.Options) (rules.Options, error) {
	opts := v.GetStructValue()
	if opts == nil {
		return base, fmt.Errorf("%w: options must be an object", ErrInvalidRequest)
	}

	for key, val := range opts.GetFields() {
		switch key {
		case "contextLimit":
			n, ok := val.GetKind().(*structpb.Value_NumberValue)
			if !ok || n.NumberValue < 1 || n.NumberValue != math.Trunc(n.NumberValue) {
				return base, fmt.Errorf("%w: contextLimit must be a positive integer", ErrInvalidRequest)
			}
			base.ContextLimit = int(n.NumberValue)
		case "timeLimit":
			n, ok := val.GetKind().(*structpb.Value_NumberValue)
			if !ok || n.NumberValue <= 0 {
				return base, fmt.Errorf("%w: timeLimit must be a positive number of seconds", ErrInvalidRequest)
			}
			base.TimeLimit = time.Duration(n.NumberValue * float64(time.Second))
		case "returnAllContexts":
			b, ok := val.GetKind().(*structpb.Value_BoolValue)
			if !ok {
				return base, fmt.Errorf("%w: returnAllContexts must be a boolean", ErrInvalidRequest)
			}
			base.ReturnAllContexts = b.BoolValue
		case "timeBudget":
			budget, err := rules.ParseTimeBudget(val.GetStringValue())
			if err != nil {
				return base, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
			}
			base.TimeBudget = budget
		default:
			return base, fmt.Errorf("%w: unknown option %q", ErrInvalidRequest, key)
		}
	}
	return base, nil
}

// encodeResults converts results to a response struct via their JSON form.
func encodeResults(id types.EvaluationID, results []rules.RuleResult) (*structpb.Struct, error) {
	raw, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	if list == nil {
		list = []any{}
	}

	return structpb.NewStruct(map[string]any{
		"evaluation_id": string(id),
		"results":       list,
	})
}
