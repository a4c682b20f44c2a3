package transport

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that emits one structured log entry per call
// with request ID, provider, model, stream flag, status and duration. For
// streaming calls the duration covers the time to the response headers.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Transport) Transport {
		return TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()

			resp, err := next.Send(ctx, req)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("provider", req.Provider),
				slog.String("model", req.Model),
				slog.Bool("stream", req.Stream),
				slog.Duration("duration", time.Since(start)),
			}

			switch {
			case err != nil:
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
			case resp.StatusCode >= 400:
				attrs = append(attrs, slog.Int("status", resp.StatusCode))
				logger.LogAttrs(ctx, slog.LevelWarn, "request rejected", attrs...)
			default:
				attrs = append(attrs, slog.Int("status", resp.StatusCode))
				logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
			}

			return resp, err
		})
	}
}
