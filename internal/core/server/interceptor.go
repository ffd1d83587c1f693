package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ggerhardt/ajre-rules-engine/internal/log"
)

// UnaryInterceptor returns gRPC interceptor that injects logger into the
// request context, logs each call and converts handler panics to INTERNAL.
func UnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		reqLogger := logger.With(slog.String("method", info.FullMethod))
		ctx = log.NewContext(ctx, reqLogger)

		defer func() {
			if r := recover(); r != nil {
				reqLogger.Error("handler panic",
					slog.String("panic", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}

			code := status.Code(err)
			level := slog.LevelDebug
			if code != codes.OK {
				level = slog.LevelWarn
			}
			reqLogger.Log(ctx, level, "request finished",
				slog.String("code", code.String()),
				slog.Duration("duration", time.Since(start)),
			)
		}()

		return handler(ctx, req)
	}
}
