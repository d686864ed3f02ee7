package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/metrics"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC and
// records its outcome in the RPC metrics.
func LoggingInterceptor() connect.Interceptor {
	return loggingInterceptor{}
}

type loggingInterceptor struct{}

func (loggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		observe(ctx, req.Spec().Procedure, start, err)
		return resp, err
	}
}

func (loggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (loggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)
		observe(ctx, conn.Spec().Procedure, start, err)
		return err
	}
}

func observe(ctx context.Context, procedure string, start time.Time, err error) {
	elapsed := time.Since(start)
	duration := elapsed.Milliseconds()
	userID := GetUserID(ctx) // empty if pre-auth

	code := "ok"
	if err != nil {
		code = connect.CodeOf(err).String()
	}
	metrics.RPCRequests.WithLabelValues(procedure, code).Inc()
	metrics.RPCDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())

	if err == nil {
		slog.Info("RPC ok",
			"procedure", procedure,
			"user_id", userID,
			"duration_ms", duration,
		)
		return
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		slog.Warn("RPC error",
			"procedure", procedure,
			"code", connectErr.Code(),
			"error", connectErr.Message(),
			"user_id", userID,
			"duration_ms", duration,
		)
		return
	}
	slog.Error("RPC error",
		"procedure", procedure,
		"error", err,
		"user_id", userID,
		"duration_ms", duration,
	)
}
