// Package seeders provides a registry of database seed functions.
//
// Define a seeder in any file in this package:
//
//	func init() {
//	    seeders.Register("admin", Admin)
//	}
//
// The server runs every registered seeder once the database connects; the
// CLI runs them on demand with `folio seed`.
package seeders

import (
	"sync"

	"github.com/shashiranjanraj/folio/pkg/app"
)

// SeederFunc is the signature for a seed function.
type SeederFunc = app.Seeder

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry.
// Call this from init() in your seeder files.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists the registered seeders in registration order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// Apply hands every registered seeder to a, in registration order.
func Apply(a *app.Application) *app.Application {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	for _, e := range current {
		a.Seed(e.name, e.fn)
	}
	return a
}
