// Package store provides persistence for template sets keyed by object
// name and definition kind.
package store

// Record is one stored version of a template set. Value holds the
// templates serialized as s-expression text, one form per line.
type Record struct {
	Name    string
	Kind    string
	Version int
	Value   string
	Ts      string
}

// Store is the interface for template-set persistence.
type Store interface {
	// Get retrieves the latest version for (name, kind). Returns nil
	// if not found.
	Get(name, kind string) (*Record, error)
	// GetVersion retrieves a specific version. Returns nil if the
	// version does not exist.
	GetVersion(name, kind string, version int) (*Record, error)
	// Put stores a new version for (name, kind) and returns its
	// version number, starting at 1.
	Put(name, kind, value string) (int, error)
	// Versions returns all stored versions for (name, kind),
	// newest first.
	Versions(name, kind string) ([]Record, error)
	// Delete removes every version for (name, kind).
	Delete(name, kind string) error
	// Close releases resources.
	Close() error
}

// MetadataStore extends Store with metadata operations.
type MetadataStore interface {
	Store
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}
