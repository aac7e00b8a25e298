// Package storage abstracts the object store that report artifacts and
// uploaded files are kept in.
package storage

import (
	"context"
	"io"
)

// Storage is the minimal object-store surface the report pipeline needs.
type Storage interface {
	// Save writes data under path, creating or replacing the object.
	Save(ctx context.Context, path string, data []byte) error
	// Open returns a reader over the object at path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Exists reports whether an object is present at path.
	Exists(ctx context.Context, path string) (bool, error)
	// Delete removes the object at path. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, path string) error
}
