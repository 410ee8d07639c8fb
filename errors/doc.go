// Package errors provides the error taxonomy of the HTTP connector.
//
// Every failure surfaced by the connector is an *AppError carrying a
// machine-readable ErrorCode, a retryable flag and the HTTP status that
// best describes it. Lifecycle failures (construction, start) wrap their
// cause so callers can still use errors.Is / errors.As on the original error.
package errors
