// Package client talks to the gophauth HTTP API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface):
//     Register, Login, Refresh, WhoAmI, Logout and Ping.
//  2. A concrete HTTP implementation (see HTTPClient) that keeps the refresh
//     token in a cookie jar, sends the access token as a bearer header,
//     transparently refreshes an expired access token once and maps server
//     responses to sentinel errors.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrUserNotFound,
// ErrWrongPassword, ErrAlreadyExists, ErrSessionExpired and
// ErrInvalidRefreshToken.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and timeouts.
package client
