// Package logger provides structured logging for the HTTP connector
// using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers carrying connector fields such as the client
// key, reference count and authentication attempt.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("shared")
//	log.Debug("transport started", logger.Fields(logger.FieldClientKey, key))
package logger
