package storage

import "fmt"

// UploadError marks a failed object write so callers can distinguish
// transient storage faults from other pipeline errors.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
