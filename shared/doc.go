// Package shared keeps one reference-counted instance of an expensive
// resource per key. Consumers get a Handle; the resource starts when the
// first handle starts it and stops when the last started handle stops it.
//
//	reg := shared.NewRegistry[transport.Transport]("requester")
//	h, err := reg.LookupOrCreate(key, func() (transport.Transport, error) {
//	    return factory(settings)
//	})
//	if err := h.Start(ctx); err != nil { ... }
//	defer h.Close()
//	defer h.Stop(ctx)
//
// A key's entry is removed once every handle is closed and the reference
// count is zero; the next LookupOrCreate builds a fresh resource.
package shared
