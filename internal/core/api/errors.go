package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ggerhardt/ajre-rules-engine/internal/ruleset"
)

// Request errors. Rule-level failures never surface here; they are reported
// inside the rule's result.
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrBatchTooLarge   = errors.New("batch too large")
	ErrRequestTooLarge = errors.New("request too large")
)

// toStatus maps request errors to gRPC status codes.
// Validation and size errors map to INVALID_ARGUMENT.
// Context timeouts map to DEADLINE_EXCEEDED.
func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrBatchTooLarge),
		errors.Is(err, ErrRequestTooLarge),
		errors.Is(err, ruleset.ErrSchema),
		errors.Is(err, ruleset.ErrDecode):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
