package actionclient

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Log is an inbound stage which logs each submitted request with zerolog:
// the client and action, method, URL, status code, response size and
// elapsed time.  Failed requests are logged at error level, responses
// with status >= 400 at warn level, and everything else at info level.
//
// The stage never logs bodies or headers, which may hold credentials.  Use
// Dump for debugging.
func Log(logger zerolog.Logger) Stage {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Handle(ctx, req)

			var ev *zerolog.Event
			switch {
			case err != nil:
				ev = logger.Error().Err(err)
			case resp != nil && resp.StatusCode >= 400:
				ev = logger.Warn()
			default:
				ev = logger.Info()
			}

			ev = ev.Str("client", req.Client).
				Str("action", req.Action).
				Str("method", req.Method)
			if req.URL != nil {
				ev = ev.Str("url", req.URL.Redacted())
			}
			if resp != nil {
				ev = ev.Int("status", resp.StatusCode).Int("size", len(resp.Body))
			}
			ev.Dur("elapsed", time.Since(start)).Msg("submitted request")

			return resp, err
		})
	}
}
