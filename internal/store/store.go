package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidPath = errors.New("invalid document path")
	ErrNotFound    = errors.New("document not found")
)

// Doc is the raw field map of a document as the store delivers it.
// Map-valued fields nest; MergeWrite merges them recursively so that
// concurrent writers owning disjoint keys never clobber each other.
type Doc map[string]any

// Snapshot is a full-state read of a single document.
type Snapshot struct {
	Path   string
	Exists bool
	Data   Doc
}

// Entry is one document inside an ordered collection snapshot.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Data      Doc
}

// CollectionSnapshot is a full-state read of an ordered collection,
// sorted ascending by the store-assigned creation timestamp.
type CollectionSnapshot struct {
	Path    string
	Entries []Entry
}

// DocSubscription streams snapshots of one document until canceled.
// The first snapshot reflects current state; later ones are delivered
// in write order for that path. Cancel is idempotent and closes the
// snapshot channel.
type DocSubscription interface {
	Snapshots() <-chan Snapshot
	Cancel()
}

// CollectionSubscription streams full-state snapshots of an ordered
// collection until canceled.
type CollectionSubscription interface {
	Snapshots() <-chan CollectionSnapshot
	Cancel()
}

// Store is the document/listener backend the sync core runs against.
// Snapshots are at-least-once with per-path ordering; there is no
// ordering guarantee across different paths.
type Store interface {
	// GetDoc reads a document once. A missing document is not an
	// error; Exists reports whether it was found.
	GetDoc(ctx context.Context, path string) (Snapshot, error)

	// GetCollection reads an ordered collection once.
	GetCollection(ctx context.Context, path string) (CollectionSnapshot, error)

	// SubscribeDoc opens a live snapshot stream for one document.
	SubscribeDoc(ctx context.Context, path string) (DocSubscription, error)

	// SubscribeCollection opens a live snapshot stream for an ordered
	// collection. Merge-writes to member documents also trigger a new
	// snapshot.
	SubscribeCollection(ctx context.Context, path string) (CollectionSubscription, error)

	// MergeWrite partially updates a document, creating it if absent.
	// Only the given fields are touched; nested maps merge per key.
	MergeWrite(ctx context.Context, path string, fields Doc) error

	// Append adds a new entry to an ordered collection with a
	// store-assigned id and creation timestamp, and returns the id.
	// The timestamp is exposed to readers as the "createdAt" field.
	Append(ctx context.Context, path string, fields Doc) (string, error)
}
