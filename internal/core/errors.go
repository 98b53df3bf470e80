package core

import "errors"

// Store sentinels. Adapters normalize their backend's failure signals onto
// these two; services translate them into API-level not-found errors at the
// call site, where the resource name and id are known.
var (
	// ErrIndexNotFound means the whole index (table, key namespace) is absent.
	ErrIndexNotFound = errors.New("index not found")
	// ErrDocumentMissing means the index exists but holds no document with
	// the requested id.
	ErrDocumentMissing = errors.New("document not found")
)

// IsNotFound reports whether err is either store sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound) || errors.Is(err, ErrDocumentMissing)
}
