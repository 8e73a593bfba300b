// Package session holds the bearer token of the current tab.
//
// A Store is created once per client process and injected into every
// component that needs the token; there is no package-level state. The token
// lives in memory and is mirrored to a Cell so that a restart of the same tab
// can pick it up again when a persistent cell is configured:
//
//   - MemoryCell keeps nothing beyond the process lifetime.
//   - metadata.SQLiteRepository persists to the local database.
//
// The store never inspects or validates the token. Subject reads the
// unverified "sub" claim for display only.
package session
