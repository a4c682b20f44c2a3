package transport

// Middleware decorates a Transport. Middlewares see the outbound request
// before the vendor does and the response before the caller does.
type Middleware func(Transport) Transport

// Chain folds middlewares into one. The first argument ends up outermost, so
// Chain(a, b)(t) sends through a, then b, then t. Nil entries are skipped,
// which lets callers switch a stage off in place.
func Chain(middlewares ...Middleware) Middleware {
	return func(next Transport) Transport {
		for i := len(middlewares) - 1; i >= 0; i-- {
			if middlewares[i] == nil {
				continue
			}
			next = middlewares[i](next)
		}
		return next
	}
}

// Wrap applies middlewares to t.
func Wrap(t Transport, middlewares ...Middleware) Transport {
	return Chain(middlewares...)(t)
}
