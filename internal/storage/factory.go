package storage

import "fmt"

// DefaultSQLitePath is used when the sqlite store is selected without an
// explicit database path.
const DefaultSQLitePath = "qatpx.db"

// NewStore builds the run-history store for the given kind. The memory store
// is always available; the sqlite store needs the sqlite build tag, and kind
// "" selects memory so callers can pass an unset config value through.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if sqlitePath == "" {
			sqlitePath = DefaultSQLitePath
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes stores that hold external resources; the memory
// store has none and is left untouched.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
