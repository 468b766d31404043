package vector

import "context"

// Index is the post-embedding index consumed by the search services.
// Implementations own collection lifecycle and must be safe for concurrent
// upsert and search.
type Index interface {
	// EnsureCollection creates the backing collection when absent. Idempotent;
	// tolerates concurrent create races. The vector dimension is fixed here
	// for the lifetime of the collection.
	EnsureCollection(ctx context.Context) error

	// Upsert stores or replaces the vector for a post. Repeated upserts for
	// the same post id overwrite, never duplicate.
	Upsert(ctx context.Context, postID int64, values []float32) error

	// Search returns up to topK post ids, best match first (cosine).
	Search(ctx context.Context, q []float32, topK int) ([]Match, error)

	// Delete removes vectors for the given post ids. Missing ids are not an
	// error.
	Delete(ctx context.Context, postIDs []int64) error
}

type Match struct {
	PostID int64
	Score  float64
}
