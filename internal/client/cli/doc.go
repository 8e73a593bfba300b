// Package cli provides the interactive filevault command-line client.
//
// It wires configuration, the session store (in memory or mirrored to a
// SQLite file), the HTTP API client and the services, and drives them from a
// REPL with two pages:
//   - login: register an account or authenticate against the token endpoint
//   - main: upload, list, delete, open, view and download files; logout
//
// With a session database, the saved sessions of every tab can be listed with
// "sessions" and removed at once with "logout --all".
//
// App implements the services UI ports: it prints notifications and state
// transitions, asks confirmations on the terminal and switches pages.
// Entering the main page is gated on a session and loads the file list.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
