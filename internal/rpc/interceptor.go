package rpc

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/metrics"
)

// NewServerInterceptor validates every request, bounds the call by
// timeout, converts engine errors for the wire and records call metrics.
// A zero timeout leaves the caller's deadline alone.
func NewServerInterceptor(v *Validator, timeout time.Duration) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			res, err := serve(ctx, req, next, v, timeout)

			code := "ok"
			if err != nil {
				logFailure(procedure, err)
				err = ToConnectError(err)
				code = connect.CodeOf(err).String()
			}
			metrics.RecordRPCDuration(procedure, code, time.Since(start).Seconds())
			return res, err
		}
	}
}

func serve(ctx context.Context, req connect.AnyRequest, next connect.UnaryFunc, v *Validator, timeout time.Duration) (connect.AnyResponse, error) {
	if err := v.Check(req.Any()); err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return next(ctx, req)
}

func logFailure(procedure string, err error) {
	e, ok := apperr.As(apperr.Classify(err))
	switch {
	case !ok:
		slog.Error("call failed", "procedure", procedure, "error", err)
	case e.Kind == apperr.KindTransient:
		slog.Error("call failed", "procedure", procedure, "reason", string(e.Reason), "error", err)
	default:
		slog.Info("call rejected", "procedure", procedure, "reason", string(e.Reason), "message", e.Message)
	}
}
