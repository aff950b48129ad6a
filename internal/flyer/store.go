package flyer

import "context"

// Store persists flyer entries. List returns entries oldest first; an empty
// category lists everything.
type Store interface {
	Create(ctx context.Context, e Entry) error
	List(ctx context.Context, category Category) ([]Entry, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
