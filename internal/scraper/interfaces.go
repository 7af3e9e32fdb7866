package scraper

import (
	"context"
	"time"
)

// Fetcher retrieves a single page and returns its raw HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Store persists scraped entities. Category writes happen inside a Tx
// scoped to one category's processing; scrape logs are committed
// immediately so a run is visible while it is still in flight.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	StartScrapeLog(ctx context.Context, start time.Time) (int64, error)
	FinishScrapeLog(ctx context.Context, log ScrapeLog) error
}

// Tx is a category-scoped unit of work over the store.
type Tx interface {
	// GetOrCreateCategory looks a category up by slug, creating it on
	// first encounter. An existing row with an empty category_type has
	// it backfilled from categoryType.
	GetOrCreateCategory(ctx context.Context, name, slug, url string, parentID *int64, categoryType string) (Category, error)
	// GetPostByURL returns the post with the given URL, or nil when absent.
	GetPostByURL(ctx context.Context, url string) (*Post, error)
	// CreatePost inserts a new post and sets post.ID.
	CreatePost(ctx context.Context, post *Post) error
	UpdatePost(ctx context.Context, post *Post) error
	// ReplaceAttachments deletes every attachment row for the post and
	// inserts the given set.
	ReplaceAttachments(ctx context.Context, postID int64, files []AttachmentFile) error
	Commit() error
	Rollback() error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// PauseFunc blocks for the given delay or until the context is done.
type PauseFunc func(ctx context.Context, delay time.Duration)
