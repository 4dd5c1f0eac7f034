package identitymap

import "errors"

var (
	// ErrKeyNotFound means the key is not cached; the caller must load it.
	ErrKeyNotFound = errors.New("identitymap: key not found")
	// ErrObjectNotFound means the key is cached as absent.
	ErrObjectNotFound = errors.New("identitymap: object not found")
)
