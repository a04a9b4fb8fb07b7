package library

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("quiz not found")

// Entry describes an uploaded quiz document. The solution is never stored
// here so listing the library does not spoil the game.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Letters   int       `json:"letters"`
	Images    int       `json:"images"`
	DocKey    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, id string) error
}
