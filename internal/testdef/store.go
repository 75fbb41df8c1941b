package testdef

import "context"

type ListOpts struct {
	Q              string
	Specialization string
	Limit          int
	Offset         int
	// PublishedOnly hides drafts; set for viewers without authoring
	// permissions.
	PublishedOnly bool
}

// Store persists tests and their questions. GetTest is the taker-safe
// view; GetTestFull keeps answer keys and is reserved for scoring and
// authoring surfaces.
type Store interface {
	PutTest(ctx context.Context, t Test) error
	GetTest(ctx context.Context, id string) (Test, error)
	GetTestFull(ctx context.Context, id string) (Test, error)
	SetPublished(ctx context.Context, id string, published bool) error
	ListTests(ctx context.Context, opts ListOpts) ([]Summary, error)
}
