package actionclient

import (
	"context"

	"github.com/google/uuid"
)

// HeaderRequestID is the default header used by RequestID.
const HeaderRequestID = "X-Request-Id"

// RequestID is an outbound stage which sets a random UUID in the named
// header (HeaderRequestID if empty), unless the request already has one.
//
// As an outbound stage, the ID is fixed when the request is built: every
// submission of the same request, including retries, carries the same ID.
func RequestID(header string) Stage {
	if header == "" {
		header = HeaderRequestID
	}
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if !req.Header.Has(header) {
				if req.Header == nil {
					req.Header = &Headers{}
				}
				req.Header.Set(header, uuid.NewString())
			}
			return next.Handle(ctx, req)
		})
	}
}
