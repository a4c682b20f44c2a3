package transport

import (
	"context"
	"fmt"
)

// Recovery returns middleware that converts a panic in the wrapped
// transport into an error, so one faulty call cannot take down the caller.
func Recovery() Middleware {
	return func(next Transport) Transport {
		return TransportFunc(func(ctx context.Context, req *Request) (resp *Response, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					retErr = fmt.Errorf("transport panic: %v", r)
				}
			}()
			return next.Send(ctx, req)
		})
	}
}
