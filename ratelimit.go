package actionclient

import (
	"context"

	"github.com/ansel1/merry"
	"golang.org/x/time/rate"
)

// RateLimit is an inbound stage which waits for limiter before sending each
// request.  If ctx is canceled, or its deadline would pass before a token is
// available, the request isn't sent and the error is returned.
//
//     limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 5)
//     c, _ := actionclient.New("articles", actionclient.UseInbound(actionclient.RateLimit(limiter)))
//
// Share one limiter between clients to apply a single limit to all of them.
func RateLimit(limiter *rate.Limiter) Stage {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, merry.Prepend(err, "rate limit")
			}
			return next.Handle(ctx, req)
		})
	}
}
