package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pharmawatch/eofscraper/internal/scraper"
)

// Sort fields accepted by ListPosts.
const (
	SortByPublishDate = "publish_date"
	SortByTitle       = "title"
	SortByScrapedAt   = "scraped_at"
)

// Sort directions accepted by ListPosts.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// sortColumns is the allow-list mapping request sort fields to SQL
// columns. Anything outside it falls back to publish_date.
var sortColumns = map[string]string{
	SortByPublishDate: "p.publish_date",
	SortByTitle:       "p.title",
	SortByScrapedAt:   "p.scraped_at",
}

// ListPostsOptions filters and pages the post listing.
type ListPostsOptions struct {
	CategoryID *int64
	Search     string
	Skip       int
	Limit      int
	SortBy     string
	Order      string
}

// PostWithMeta is a post joined with its category name and attachments.
type PostWithMeta struct {
	scraper.Post
	CategoryName string               `json:"category_name,omitempty"`
	Attachments  []scraper.Attachment `json:"attachments"`
}

// ListPosts returns a filtered, sorted page of posts with their
// category names and attachments.
func (db *DB) ListPosts(ctx context.Context, opts ListPostsOptions) ([]PostWithMeta, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var conds []string
	var args []any
	if opts.CategoryID != nil {
		conds = append(conds, "p.category_id = ?")
		args = append(args, *opts.CategoryID)
	}
	if opts.Search != "" {
		conds = append(conds, "(LOWER(p.title) LIKE ? OR LOWER(p.content) LIKE ?)")
		pattern := "%" + strings.ToLower(opts.Search) + "%"
		args = append(args, pattern, pattern)
	}

	query := `
		SELECT ` + postColumns2("p") + `, c.name
		FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = sortColumns[SortByPublishDate]
	}
	direction := "DESC"
	if opts.Order == OrderAsc {
		direction = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, p.id %s LIMIT ? OFFSET ?", column, direction, direction)
	args = append(args, limit, opts.Skip)

	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []PostWithMeta
	var ids []int64
	for rows.Next() {
		var categoryName sql.NullString
		post, err := scanPost(rows, &categoryName)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, PostWithMeta{
			Post:         post,
			CategoryName: categoryName.String,
			Attachments:  []scraper.Attachment{},
		})
		ids = append(ids, post.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if err := db.attachTo(ctx, posts, ids); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches one post by id with its category name and attachments.
func (db *DB) GetPost(ctx context.Context, id int64) (*PostWithMeta, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT `+postColumns2("p")+`, c.name
		FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?`), id)
	var categoryName sql.NullString
	post, err := scanPost(row, &categoryName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	result := PostWithMeta{
		Post:         post,
		CategoryName: categoryName.String,
		Attachments:  []scraper.Attachment{},
	}
	attachments, err := db.listAttachments(ctx, []int64{post.ID})
	if err != nil {
		return nil, err
	}
	if files, ok := attachments[post.ID]; ok {
		result.Attachments = files
	}
	return &result, nil
}

func (db *DB) attachTo(ctx context.Context, posts []PostWithMeta, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	attachments, err := db.listAttachments(ctx, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		if files, ok := attachments[posts[i].ID]; ok {
			posts[i].Attachments = files
		}
	}
	return nil
}

func (db *DB) listAttachments(ctx context.Context, postIDs []int64) (map[int64][]scraper.Attachment, error) {
	placeholders := make([]string, len(postIDs))
	args := make([]any, len(postIDs))
	for i, id := range postIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT id, post_id, file_url, file_name, file_type, created_at
		FROM attachments
		WHERE post_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY id`), args...)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]scraper.Attachment)
	for rows.Next() {
		var a scraper.Attachment
		var fileName, fileType sql.NullString
		if err := rows.Scan(&a.ID, &a.PostID, &a.FileURL, &fileName, &fileType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		a.FileName = fileName.String
		a.FileType = fileType.String
		result[a.PostID] = append(result[a.PostID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return result, nil
}

// CategoryWithCount is a category annotated with its post count.
type CategoryWithCount struct {
	scraper.Category
	PostCount int `json:"post_count"`
}

// ListCategories returns every category with its post count, ordered
// by name.
func (db *DB) ListCategories(ctx context.Context) ([]CategoryWithCount, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+categoryColumns2("c")+`, COUNT(p.id)
		FROM categories c
		LEFT JOIN posts p ON p.category_id = c.id
		GROUP BY `+categoryColumns2("c")+`
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []CategoryWithCount
	for rows.Next() {
		var count int
		cat, err := scanCategoryCount(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, CategoryWithCount{Category: cat, PostCount: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory fetches one category by id with its post count.
func (db *DB) GetCategory(ctx context.Context, id int64) (*CategoryWithCount, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT `+categoryColumns2("c")+`, COUNT(p.id)
		FROM categories c
		LEFT JOIN posts p ON p.category_id = c.id
		WHERE c.id = ?
		GROUP BY `+categoryColumns2("c")), id)
	var count int
	cat, err := scanCategoryCount(row, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &CategoryWithCount{Category: cat, PostCount: count}, nil
}

// ListScrapeLogs returns the most recent scrape logs, optionally
// filtered by status.
func (db *DB) ListScrapeLogs(ctx context.Context, status string, limit int) ([]scraper.ScrapeLog, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, start_time, end_time, status, posts_scraped, posts_new,
		       posts_updated, errors, duration_seconds
		FROM scrape_logs`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY start_time DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list scrape logs: %w", err)
	}
	defer rows.Close()

	var logs []scraper.ScrapeLog
	for rows.Next() {
		var entry scraper.ScrapeLog
		var endTime sql.NullTime
		var errText sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.StartTime, &endTime, &entry.Status,
			&entry.PostsScraped, &entry.PostsNew, &entry.PostsUpdated,
			&errText, &entry.DurationSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan scrape log: %w", err)
		}
		if endTime.Valid {
			v := endTime.Time
			entry.EndTime = &v
		}
		entry.Errors = errText.String
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scrape logs: %w", err)
	}
	return logs, nil
}

// Stats summarizes the corpus and the most recent successful run.
type Stats struct {
	TotalPosts           int        `json:"total_posts"`
	TotalCategories      int        `json:"total_categories"`
	TotalAttachments     int        `json:"total_attachments"`
	LastSuccessfulScrape *time.Time `json:"last_successful_scrape,omitempty"`
	LastScrapePosts      int        `json:"last_scrape_posts"`
}

// GetStats computes aggregate counts for the stats endpoint.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM posts", &stats.TotalPosts},
		{"SELECT COUNT(*) FROM categories", &stats.TotalCategories},
		{"SELECT COUNT(*) FROM attachments", &stats.TotalAttachments},
	}
	for _, c := range counts {
		if err := db.conn.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("count: %w", err)
		}
	}

	row := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT start_time, end_time, posts_scraped
		FROM scrape_logs
		WHERE status = ?
		ORDER BY start_time DESC
		LIMIT 1`), string(scraper.RunStatusSuccess))
	var start time.Time
	var end sql.NullTime
	var posts int
	err := row.Scan(&start, &end, &posts)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, fmt.Errorf("last successful scrape: %w", err)
	}
	if err == nil {
		when := start
		if end.Valid {
			when = end.Time
		}
		stats.LastSuccessfulScrape = &when
		stats.LastScrapePosts = posts
	}
	return stats, nil
}

func postColumns2(alias string) string {
	return prefixColumns(postColumns, alias)
}

func categoryColumns2(alias string) string {
	return prefixColumns(categoryColumns, alias)
}

func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

func scanCategoryCount(scanner interface{ Scan(...any) error }, count *int) (scraper.Category, error) {
	var c scraper.Category
	var parentID sql.NullInt64
	var categoryType sql.NullString
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.URL,
		&parentID, &categoryType, &c.CreatedAt, &c.UpdatedAt,
		count,
	)
	if err != nil {
		return scraper.Category{}, err
	}
	if parentID.Valid {
		v := parentID.Int64
		c.ParentID = &v
	}
	c.CategoryType = categoryType.String
	return c, nil
}
