// Package bootstrap runs the connector lifecycle: it starts the registered
// components in order, waits for SIGINT or SIGTERM, and stops them in
// reverse order within a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(requester.NewComponent(client))
//	app.RegisterComponent(listener.NewComponent(l))
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bootstrap
