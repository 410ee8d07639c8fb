// Package transport is the asynchronous HTTP client shared by requester
// clients. A Transport owns the connection pool; every Send gets its own
// Options so timeouts and redirect policy never leak between calls.
//
//	t, err := transport.NewHTTPTransport(settings)
//	_ = t.Start(ctx)
//	resp, err := t.Send(ctx, req, transport.Options{ResponseTimeout: 5 * time.Second}).Await(ctx)
package transport
