// Package security holds the TLS configuration shared by the requester
// transport (client side) and the listener servers (server side).
package security
