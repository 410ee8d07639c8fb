// Package requester is the outbound side of the connector. A Provider binds
// requester configurations to transports shared by configuration name, and
// each Client sends requests through the authentication retry protocol:
// the strategy sees the first result and may ask for exactly one retry.
//
//	p := requester.NewProvider("orders-app")
//	c, err := p.NewClient(requester.Config{
//	    Name:    "inventory",
//	    BaseURI: requester.URIParams{Scheme: "https", Host: "inventory.internal"},
//	    Auth:    auth.Config{Type: auth.TypeDigest, Username: "svc", Password: pw},
//	})
//	if err := c.Start(ctx); err != nil { ... }
//	defer c.Close()
//	resp, err := c.Do(ctx, requester.Request{Method: "GET", URI: "/items"}, requester.CallOptions{})
package requester
