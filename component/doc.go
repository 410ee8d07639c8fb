// Package component defines the lifecycle contract shared by requester
// clients, listeners and observability providers, and an ordered registry
// that starts them in registration order and stops them in reverse.
package component
