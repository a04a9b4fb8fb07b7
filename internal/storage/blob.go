package storage

import (
	"errors"
	"io"
)

var ErrBadKey = errors.New("invalid key")

// BlobStore holds uploaded quiz documents and their images.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Path(key string) (string, error) // local path the codec can resolve images against
	Delete(prefix string) error
}
