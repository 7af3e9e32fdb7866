// Package store provides relational persistence for scraped entities.
// It backs the scraper's write path and the serving API's read-only
// query surface, over either an embedded SQLite file or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/pharmawatch/eofscraper/internal/scraper"
)

//go:embed migrations
var embedMigrations embed.FS

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned by single-row reads when no row matches.
var ErrNotFound = errors.New("store: not found")

// gooseMu serializes goose's package-global configuration
// (SetBaseFS/SetDialect) across concurrent Open calls.
var gooseMu sync.Mutex

// Config controls the database connection.
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// DB wraps the SQL connection pool and implements scraper.Store plus
// the read-only query surface consumed by the API.
type DB struct {
	conn   *sql.DB
	driver string
}

// Open connects to the configured database, applies connection
// settings, and runs pending migrations.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var driverName, dialect string
	switch driver {
	case DriverSQLite:
		driverName, dialect = "sqlite", "sqlite3"
	case DriverPostgres:
		driverName, dialect = "pgx", "postgres"
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}

	conn, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if driver == DriverSQLite {
		// One long-lived writer plus concurrent API readers: WAL mode
		// and a generous busy timeout keep them from tripping over
		// each other.
		pragmas := []string{
			"PRAGMA journal_mode=WAL;",
			"PRAGMA busy_timeout=30000;",
			"PRAGMA foreign_keys=ON;",
		}
		for _, pragma := range pragmas {
			if _, err := conn.ExecContext(ctx, pragma); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply %s: %w", strings.TrimSuffix(pragma, ";"), err)
			}
		}
	} else if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(conn, dialect, driver); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn, driver: driver}, nil
}

func migrate(conn *sql.DB, dialect, driver string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations/"+driver); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// rebind rewrites ? placeholders into the $N form when talking to
// Postgres. Queries in this package are written with ? throughout.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execQueryer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}

// insertID runs an INSERT and returns the generated row id, bridging
// the LastInsertId/RETURNING split between the two drivers.
func (db *DB) insertID(ctx context.Context, q execQueryer, query string, args ...any) (int64, error) {
	if db.driver == DriverPostgres {
		var id int64
		err := q.QueryRowContext(ctx, db.rebind(query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Begin opens a category-scoped transaction.
func (db *DB) Begin(ctx context.Context) (scraper.Tx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &storeTx{tx: tx, db: db}, nil
}

// StartScrapeLog inserts a running scrape log row, committed
// immediately so in-flight runs are visible to readers.
func (db *DB) StartScrapeLog(ctx context.Context, start time.Time) (int64, error) {
	id, err := db.insertID(ctx, db.conn,
		`INSERT INTO scrape_logs (start_time, status) VALUES (?, ?)`,
		start, string(scraper.RunStatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("insert scrape log: %w", err)
	}
	return id, nil
}

// FinishScrapeLog applies the single terminal update to a scrape log.
func (db *DB) FinishScrapeLog(ctx context.Context, entry scraper.ScrapeLog) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE scrape_logs
		SET end_time = ?, status = ?, posts_scraped = ?, posts_new = ?,
		    posts_updated = ?, errors = ?, duration_seconds = ?
		WHERE id = ?`),
		nullTime(entry.EndTime), string(entry.Status), entry.PostsScraped,
		entry.PostsNew, entry.PostsUpdated, nullString(entry.Errors),
		entry.DurationSeconds, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("finish scrape log: %w", err)
	}
	return nil
}

type storeTx struct {
	tx *sql.Tx
	db *DB
}

func (t *storeTx) Commit() error {
	return t.tx.Commit()
}

func (t *storeTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

const categoryColumns = `id, name, slug, url, parent_id, category_type, created_at, updated_at`

func scanCategory(scanner interface{ Scan(...any) error }) (scraper.Category, error) {
	var c scraper.Category
	var parentID sql.NullInt64
	var categoryType sql.NullString
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.URL,
		&parentID, &categoryType, &c.CreatedAt, &c.UpdatedAt,
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

// GetOrCreateCategory finds a category by slug, creating it on first
// encounter and backfilling an empty category_type on later ones.
func (t *storeTx) GetOrCreateCategory(
	ctx context.Context,
	name, slug, url string,
	parentID *int64,
	categoryType string,
) (scraper.Category, error) {
	row := t.tx.QueryRowContext(ctx,
		t.db.rebind(`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`), slug)
	cat, err := scanCategory(row)
	if err == nil {
		if cat.CategoryType == "" && categoryType != "" {
			now := time.Now().UTC()
			if _, err := t.tx.ExecContext(ctx,
				t.db.rebind(`UPDATE categories SET category_type = ?, updated_at = ? WHERE id = ?`),
				categoryType, now, cat.ID,
			); err != nil {
				return scraper.Category{}, fmt.Errorf("backfill category type: %w", err)
			}
			cat.CategoryType = categoryType
			cat.UpdatedAt = now
		}
		return cat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return scraper.Category{}, fmt.Errorf("lookup category %s: %w", slug, err)
	}

	now := time.Now().UTC()
	id, err := t.db.insertID(ctx, t.tx, `
		INSERT INTO categories (name, slug, url, parent_id, category_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, slug, url, nullInt(parentID), nullString(categoryType), now, now,
	)
	if err != nil {
		return scraper.Category{}, fmt.Errorf("insert category %s: %w", slug, err)
	}
	return scraper.Category{
		ID:           id,
		Name:         name,
		Slug:         slug,
		URL:          url,
		ParentID:     parentID,
		CategoryType: categoryType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

const postColumns = `id, title, url, content, excerpt, category_id, publish_date, author, meta_description, tags, is_active, scraped_at, last_modified`

func scanPost(scanner interface{ Scan(...any) error }, dest ...any) (scraper.Post, error) {
	var p scraper.Post
	var publishDate sql.NullTime
	var author sql.NullString
	fields := []any{
		&p.ID, &p.Title, &p.URL, &p.Content, &p.Excerpt, &p.CategoryID,
		&publishDate, &author, &p.MetaDescription, &p.Tags,
		&p.IsActive, &p.ScrapedAt, &p.LastModified,
	}
	fields = append(fields, dest...)
	if err := scanner.Scan(fields...); err != nil {
		return scraper.Post{}, err
	}
	if publishDate.Valid {
		v := publishDate.Time
		p.PublishDate = &v
	}
	p.Author = author.String
	return p, nil
}

func (t *storeTx) GetPostByURL(ctx context.Context, url string) (*scraper.Post, error) {
	row := t.tx.QueryRowContext(ctx,
		t.db.rebind(`SELECT `+postColumns+` FROM posts WHERE url = ?`), url)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup post by url: %w", err)
	}
	return &post, nil
}

func (t *storeTx) CreatePost(ctx context.Context, post *scraper.Post) error {
	id, err := t.db.insertID(ctx, t.tx, `
		INSERT INTO posts (title, url, content, excerpt, category_id, publish_date,
		                   author, meta_description, tags, is_active, scraped_at, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.Title, post.URL, post.Content, post.Excerpt, post.CategoryID,
		nullTime(post.PublishDate), nullString(post.Author), post.MetaDescription,
		post.Tags, post.IsActive, post.ScrapedAt, post.LastModified,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	post.ID = id
	return nil
}

func (t *storeTx) UpdatePost(ctx context.Context, post *scraper.Post) error {
	_, err := t.tx.ExecContext(ctx, t.db.rebind(`
		UPDATE posts
		SET title = ?, content = ?, excerpt = ?, category_id = ?,
		    meta_description = ?, tags = ?, is_active = ?, last_modified = ?
		WHERE id = ?`),
		post.Title, post.Content, post.Excerpt, post.CategoryID,
		post.MetaDescription, post.Tags, post.IsActive, post.LastModified,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// ReplaceAttachments drops every attachment row for the post and
// inserts the freshly parsed set. Attachments have no identity across
// runs, so replace-all keeps the set exactly equal to the last parse.
func (t *storeTx) ReplaceAttachments(ctx context.Context, postID int64, files []scraper.AttachmentFile) error {
	if _, err := t.tx.ExecContext(ctx,
		t.db.rebind(`DELETE FROM attachments WHERE post_id = ?`), postID); err != nil {
		return fmt.Errorf("delete attachments: %w", err)
	}
	now := time.Now().UTC()
	for _, file := range files {
		if _, err := t.tx.ExecContext(ctx, t.db.rebind(`
			INSERT INTO attachments (post_id, file_url, file_name, file_type, created_at)
			VALUES (?, ?, ?, ?, ?)`),
			postID, file.FileURL, file.FileName, file.FileType, now,
		); err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
