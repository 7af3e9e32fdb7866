// Package scraper defines core types shared across subsystems.
package scraper

import (
	"time"
)

// RunStatus represents the lifecycle state of a scrape run.
type RunStatus string

// Run status values persisted in the scrape log.
const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// Category is a node in the scraped site's topic hierarchy.
type Category struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	URL          string    `json:"url"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	CategoryType string    `json:"category_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Post is a scraped article, uniquely identified by its source URL.
type Post struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	URL             string     `json:"url"`
	Content         string     `json:"content"`
	Excerpt         string     `json:"excerpt"`
	CategoryID      int64      `json:"category_id"`
	PublishDate     *time.Time `json:"publish_date,omitempty"`
	Author          string     `json:"author,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	Tags            string     `json:"tags,omitempty"`
	IsActive        bool       `json:"is_active"`
	ScrapedAt       time.Time  `json:"scraped_at"`
	LastModified    time.Time  `json:"last_modified"`
}

// Attachment is a downloadable document linked from a post's detail page.
// Attachments are owned by their post and replaced wholesale on update.
type Attachment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	FileURL   string    `json:"file_url"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ScrapeLog records the outcome of one full-scrape invocation.
type ScrapeLog struct {
	ID              int64      `json:"id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Status          RunStatus  `json:"status"`
	PostsScraped    int        `json:"posts_scraped"`
	PostsNew        int        `json:"posts_new"`
	PostsUpdated    int        `json:"posts_updated"`
	Errors          string     `json:"errors,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
}

// PostSummary is one entry extracted from a category listing page.
type PostSummary struct {
	URL         string
	Title       string
	Excerpt     string
	PublishDate *time.Time
}

// AttachmentFile is a parsed attachment link prior to persistence.
type AttachmentFile struct {
	FileURL  string
	FileName string
	FileType string
}

// PostContent holds everything extracted from a post's detail page.
type PostContent struct {
	Content         string
	Attachments     []AttachmentFile
	MetaDescription string
	Tags            string
}

// Outcome classifies the result of processing a single post.
type Outcome string

// Upsert outcomes.
const (
	OutcomeNew     Outcome = "new"
	OutcomeUpdated Outcome = "updated"
	OutcomeError   Outcome = "error"
)

// CategoryResult aggregates per-category upsert counts.
type CategoryResult struct {
	Scraped int
	New     int
	Updated int
}

// Add accumulates another result into this one.
func (r *CategoryResult) Add(other CategoryResult) {
	r.Scraped += other.Scraped
	r.New += other.New
	r.Updated += other.Updated
}

// SubcategoryConfig names one configured subcategory. Its URL is derived
// from the parent category URL plus the slug.
type SubcategoryConfig struct {
	Slug string `mapstructure:"slug" json:"slug"`
	Name string `mapstructure:"name" json:"name"`
}

// CategoryConfig is one statically configured top-level category.
type CategoryConfig struct {
	Slug          string              `mapstructure:"slug" json:"slug"`
	Name          string              `mapstructure:"name" json:"name"`
	URL           string              `mapstructure:"url" json:"url"`
	Type          string              `mapstructure:"type" json:"type"`
	Subcategories []SubcategoryConfig `mapstructure:"subcategories" json:"subcategories"`
}

// CategoryType returns the configured type, defaulting to the slug.
func (c CategoryConfig) CategoryType() string {
	if c.Type != "" {
		return c.Type
	}
	return c.Slug
}
