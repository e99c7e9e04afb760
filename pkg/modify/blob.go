package modify

import (
	"fmt"
	"os"
)

// BlobLoadError reports a file that could not be read while building a
// modification. It does not affect the connection.
type BlobLoadError struct {
	Field string
	Path  string
	Err   error
}

func (e *BlobLoadError) Error() string {
	return fmt.Sprintf("modify: load %s from %q: %v", e.Field, e.Path, e.Err)
}

func (e *BlobLoadError) Unwrap() error { return e.Err }

func loadBlob(field, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &BlobLoadError{Field: field, Path: path, Err: err}
	}
	return string(data), nil
}
