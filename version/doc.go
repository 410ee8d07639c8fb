// Package version reports the build of the connector binary. The
// variables are set with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/httpconnector/version.Version=1.2.0" ./cmd/httpconnector
//
// Unset values are filled from the module build info where available.
package version
