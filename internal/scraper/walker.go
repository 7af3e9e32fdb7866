package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pharmawatch/eofscraper/internal/metrics"
)

// WalkerConfig controls category traversal.
type WalkerConfig struct {
	// BaseURL is the site root; configured category URLs are resolved
	// against it.
	BaseURL string
	// PageDelay is the politeness pause between page fetches within a
	// category.
	PageDelay time.Duration
	// MaxExtraPages caps how many pagination URLs beyond the first page
	// are visited per category.
	MaxExtraPages int
}

// Walker iterates the configured category tree, feeding discovered
// posts through the upsert engine inside a per-category transaction.
type Walker struct {
	store   Store
	fetcher Fetcher
	clock   Clock
	pause   PauseFunc
	logger  *zap.Logger
	cfg     WalkerConfig
}

// NewWalker constructs a Walker.
func NewWalker(store Store, fetcher Fetcher, clock Clock, logger *zap.Logger, cfg WalkerConfig) *Walker {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageDelay == 0 {
		cfg.PageDelay = time.Second
	}
	if cfg.MaxExtraPages == 0 {
		cfg.MaxExtraPages = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		store:   store,
		fetcher: fetcher,
		clock:   clock,
		pause:   Pause,
		logger:  logger,
		cfg:     cfg,
	}
}

// WithPause replaces the inter-page pause, primarily for tests.
func (w *Walker) WithPause(pause PauseFunc) *Walker {
	w.pause = pause
	return w
}

// WalkTree processes one configured top-level category and its
// subcategories. A category failure is recorded as an error string and
// does not stop its siblings or its subcategories.
func (w *Walker) WalkTree(ctx context.Context, cfg CategoryConfig) (CategoryResult, []string) {
	var total CategoryResult
	var errs []string
	categoryType := cfg.CategoryType()

	parent, res, err := w.WalkCategory(ctx, cfg.Slug, cfg.Name, cfg.URL, nil, categoryType)
	total.Add(res)
	if err != nil {
		errs = append(errs, fmt.Sprintf("category %s: %v", cfg.Slug, err))
	}

	for _, sub := range cfg.Subcategories {
		subURL := strings.TrimSuffix(cfg.URL, "/") + "/" + sub.Slug + "/"
		_, res, err := w.WalkCategory(ctx, sub.Slug, sub.Name, subURL, parent, categoryType)
		total.Add(res)
		if err != nil {
			errs = append(errs, fmt.Sprintf("subcategory %s: %v", sub.Slug, err))
		}
	}
	return total, errs
}

// WalkCategory scrapes every page of one category. The category row
// itself is committed up front so subcategories can reference it even
// when page processing later fails; post writes stay in one transaction
// that is rolled back on error.
func (w *Walker) WalkCategory(
	ctx context.Context,
	slug, name, categoryURL string,
	parent *Category,
	categoryType string,
) (*Category, CategoryResult, error) {
	fullURL := w.absoluteURL(categoryURL)

	category, err := w.ensureCategory(ctx, name, slug, fullURL, parent, categoryType)
	if err != nil {
		return nil, CategoryResult{}, err
	}

	tx, err := w.store.Begin(ctx)
	if err != nil {
		return &category, CategoryResult{}, fmt.Errorf("begin category tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				w.logger.Error("category rollback failed", zap.String("slug", slug), zap.Error(rbErr))
			}
		}
	}()

	w.logger.Info("scraping category", zap.String("name", name), zap.String("url", fullURL))
	html, err := w.fetcher.Fetch(ctx, fullURL)
	if err != nil {
		return &category, CategoryResult{}, err
	}
	posts, err := ParseList(html, fullURL)
	if err != nil {
		return &category, CategoryResult{}, err
	}
	pages, err := ResolvePages(html, fullURL)
	if err != nil {
		return &category, CategoryResult{}, err
	}
	w.logger.Info("resolved pagination",
		zap.String("slug", slug),
		zap.Int("pages", len(pages)),
		zap.Int("first_page_posts", len(posts)),
	)

	var res CategoryResult
	w.processPosts(ctx, tx, posts, category, &res)

	if len(pages) > w.cfg.MaxExtraPages {
		pages = pages[:w.cfg.MaxExtraPages]
	}
	for _, pageURL := range pages {
		pagePosts, err := w.fetchList(ctx, pageURL)
		if err != nil {
			// One bad page must not abort the category.
			w.logger.Error("page scrape failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		w.processPosts(ctx, tx, pagePosts, category, &res)
		w.pause(ctx, w.cfg.PageDelay)
	}

	if err := tx.Commit(); err != nil {
		return &category, CategoryResult{}, fmt.Errorf("commit category %s: %w", slug, err)
	}
	committed = true

	w.logger.Info("category complete",
		zap.String("name", name),
		zap.Int("scraped", res.Scraped),
		zap.Int("new", res.New),
		zap.Int("updated", res.Updated),
	)
	return &category, res, nil
}

// ensureCategory commits the category row in its own short transaction.
func (w *Walker) ensureCategory(
	ctx context.Context,
	name, slug, fullURL string,
	parent *Category,
	categoryType string,
) (Category, error) {
	tx, err := w.store.Begin(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("begin category tx: %w", err)
	}
	var parentID *int64
	if parent != nil {
		parentID = &parent.ID
	}
	category, err := tx.GetOrCreateCategory(ctx, name, slug, fullURL, parentID, categoryType)
	if err != nil {
		_ = tx.Rollback()
		return Category{}, fmt.Errorf("get or create category %s: %w", slug, err)
	}
	if err := tx.Commit(); err != nil {
		return Category{}, fmt.Errorf("commit category %s: %w", slug, err)
	}
	return category, nil
}

func (w *Walker) fetchList(ctx context.Context, pageURL string) ([]PostSummary, error) {
	w.logger.Info("scraping page", zap.String("url", pageURL))
	html, err := w.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ParseList(html, pageURL)
}

func (w *Walker) processPosts(ctx context.Context, tx Tx, posts []PostSummary, category Category, res *CategoryResult) {
	for _, summary := range posts {
		outcome := w.upsertPost(ctx, tx, summary, category)
		metrics.PostProcessed(string(outcome))
		res.Scraped++
		switch outcome {
		case OutcomeNew:
			res.New++
		case OutcomeUpdated:
			res.Updated++
		}
	}
}

func (w *Walker) absoluteURL(ref string) string {
	base, err := url.Parse(w.cfg.BaseURL)
	if err != nil {
		return ref
	}
	return resolveURL(base, ref)
}
