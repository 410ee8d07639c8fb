// Package listener is the inbound side of the connector. Listener
// configurations name a server; listeners naming the same server share one
// gin engine and one socket, which is bound when the first listener starts
// and closed after the last one stops. Each listener mounts its routes
// under its own base path.
//
//	p := listener.NewProvider("orders-app")
//	l, err := p.NewListener(listener.Config{Name: "orders", Server: "public", Port: 8081, BasePath: "/orders"})
//	_ = l.Handle(http.MethodGet, "/:id", getOrder)
//	if err := l.Start(ctx); err != nil { ... }
package listener
