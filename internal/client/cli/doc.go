// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration, the HTTP API client and a small REPL. A background
// watcher pings the server and flips the prompt between online and offline.
//
// Commands:
//   - register / login
//   - whoami (transparently refreshes an expired access token)
//   - refresh (rotates the refresh token)
//   - logout
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
