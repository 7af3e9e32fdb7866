package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory Store with snapshot-based transactions.
type memStore struct {
	mu          sync.Mutex
	categories  map[string]Category
	posts       map[string]Post
	attachments map[int64][]AttachmentFile
	logs        map[int64]ScrapeLog
	nextID      int64

	beginErr      error
	startErr      error
	startedRuns   int
	finishedRuns  []ScrapeLog
	commitErrOnce bool
}

func newMemStore() *memStore {
	return &memStore{
		categories:  make(map[string]Category),
		posts:       make(map[string]Post),
		attachments: make(map[int64][]AttachmentFile),
		logs:        make(map[int64]ScrapeLog),
	}
}

func (s *memStore) Begin(context.Context) (Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{
		store:       s,
		categories:  make(map[string]Category, len(s.categories)),
		posts:       make(map[string]Post, len(s.posts)),
		attachments: make(map[int64][]AttachmentFile, len(s.attachments)),
	}
	for k, v := range s.categories {
		tx.categories[k] = v
	}
	for k, v := range s.posts {
		tx.posts[k] = v
	}
	for k, v := range s.attachments {
		tx.attachments[k] = append([]AttachmentFile(nil), v...)
	}
	return tx, nil
}

func (s *memStore) StartScrapeLog(_ context.Context, start time.Time) (int64, error) {
	if s.startErr != nil {
		return 0, s.startErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.startedRuns++
	s.logs[s.nextID] = ScrapeLog{ID: s.nextID, StartTime: start, Status: RunStatusRunning}
	return s.nextID, nil
}

func (s *memStore) FinishScrapeLog(_ context.Context, entry ScrapeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[entry.ID] = entry
	s.finishedRuns = append(s.finishedRuns, entry)
	return nil
}

func (s *memStore) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

func (s *memStore) postByURL(url string) (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[url]
	return p, ok
}

type memTx struct {
	store       *memStore
	categories  map[string]Category
	posts       map[string]Post
	attachments map[int64][]AttachmentFile
	done        bool
}

func (t *memTx) GetOrCreateCategory(_ context.Context, name, slug, url string, parentID *int64, categoryType string) (Category, error) {
	if cat, ok := t.categories[slug]; ok {
		if cat.CategoryType == "" && categoryType != "" {
			cat.CategoryType = categoryType
			t.categories[slug] = cat
		}
		return cat, nil
	}
	t.store.mu.Lock()
	t.store.nextID++
	id := t.store.nextID
	t.store.mu.Unlock()
	cat := Category{
		ID:           id,
		Name:         name,
		Slug:         slug,
		URL:          url,
		ParentID:     parentID,
		CategoryType: categoryType,
	}
	t.categories[slug] = cat
	return cat, nil
}

func (t *memTx) GetPostByURL(_ context.Context, url string) (*Post, error) {
	if p, ok := t.posts[url]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

func (t *memTx) CreatePost(_ context.Context, post *Post) error {
	t.store.mu.Lock()
	t.store.nextID++
	post.ID = t.store.nextID
	t.store.mu.Unlock()
	t.posts[post.URL] = *post
	return nil
}

func (t *memTx) UpdatePost(_ context.Context, post *Post) error {
	t.posts[post.URL] = *post
	return nil
}

func (t *memTx) ReplaceAttachments(_ context.Context, postID int64, files []AttachmentFile) error {
	t.attachments[postID] = append([]AttachmentFile(nil), files...)
	return nil
}

func (t *memTx) Commit() error {
	if t.store.commitErrOnce {
		t.store.commitErrOnce = false
		return errors.New("commit failed")
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.categories = t.categories
	t.store.posts = t.posts
	t.store.attachments = t.attachments
	t.done = true
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	return nil
}

// mapFetcher serves canned HTML keyed by URL.
type mapFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *mapFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return html, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func listingHTML(entries ...string) string {
	html := "<html><body>"
	for _, e := range entries {
		html += e
	}
	return html + "</body></html>"
}

func entryHTML(href, title string) string {
	return `<article><h3 class="entry-title"><a href="` + href + `">` + title + `</a></h3>` +
		`<time datetime="2024-03-15">15/03/2024</time></article>`
}

func detailHTML(body string, attachments ...string) string {
	html := `<html><body><div class="entry-content"><p>` + body + `</p></div>`
	for _, a := range attachments {
		html += `<a href="` + a + `">doc</a>`
	}
	return html + "</body></html>"
}

const testBase = "https://www.eof.gr"

func newTestWalker(store Store, fetcher Fetcher) *Walker {
	clock := fixedClock{t: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	w := NewWalker(store, fetcher, clock, zap.NewNop(), WalkerConfig{
		BaseURL:       testBase,
		PageDelay:     time.Nanosecond,
		MaxExtraPages: 10,
	})
	return w.WithPause(noPause)
}

func TestWalkCategoryCreatesPosts(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	fetcher := &mapFetcher{pages: map[string]string{
		testBase + "/category/news/": listingHTML(
			entryHTML("/post-a/", "Post A"),
			entryHTML("/post-b/", "Post B"),
		),
		testBase + "/post-a/": detailHTML("alpha body", "/files/a.pdf"),
		testBase + "/post-b/": detailHTML("beta body"),
	}}
	w := newTestWalker(store, fetcher)

	category, res, err := w.WalkCategory(context.Background(), "news", "News", "/category/news/", nil, "news")
	require.NoError(t, err)
	require.NotNil(t, category)
	assert.Equal(t, "news", category.Slug)
	assert.Equal(t, CategoryResult{Scraped: 2, New: 2}, res)

	post, ok := store.postByURL(testBase + "/post-a/")
	require.True(t, ok)
	assert.Equal(t, "Post A", post.Title)
	assert.Equal(t, "alpha body", post.Content)
	assert.Equal(t, category.ID, post.CategoryID)
	assert.True(t, post.IsActive)
	require.NotNil(t, post.PublishDate)

	store.mu.Lock()
	files := store.attachments[post.ID]
	store.mu.Unlock()
	require.Len(t, files, 1)
	assert.Equal(t, testBase+"/files/a.pdf", files[0].FileURL)
	assert.Equal(t, "pdf", files[0].FileType)
}

func TestWalkCategoryFollowsPagination(t *testing.T) {
	t.Parallel()

	listing := listingHTML(entryHTML("/post-a/", "Post A")) +
		`<div class="pagination"><a href="/category/news/page/2/">2</a></div>`
	store := newMemStore()
	fetcher := &mapFetcher{pages: map[string]string{
		testBase + "/category/news/":        listing,
		testBase + "/category/news/page/2/": listingHTML(entryHTML("/post-b/", "Post B")),
		testBase + "/post-a/":               detailHTML("a"),
		testBase + "/post-b/":               detailHTML("b"),
	}}
	w := newTestWalker(store, fetcher)

	_, res, err := w.WalkCategory(context.Background(), "news", "News", "/category/news/", nil, "news")
	require.NoError(t, err)
	assert.Equal(t, CategoryResult{Scraped: 2, New: 2}, res)
	assert.Equal(t, 2, store.postCount())
}

func TestWalkCategoryCapsExtraPages(t *testing.T) {
	t.Parallel()

	pagination := `<div class="pagination">`
	pages := map[string]string{}
	for i := 2; i <= 5; i++ {
		pagination += fmt.Sprintf(`<a href="/c/page/%d/">%d</a>`, i, i)
		pages[fmt.Sprintf("%s/c/page/%d/", testBase, i)] = listingHTML()
	}
	pagination += `</div>`
	pages[testBase+"/c/"] = listingHTML() + pagination

	store := newMemStore()
	fetcher := &mapFetcher{pages: pages}
	clock := fixedClock{t: time.Now()}
	w := NewWalker(store, fetcher, clock, zap.NewNop(), WalkerConfig{
		BaseURL:       testBase,
		PageDelay:     time.Nanosecond,
		MaxExtraPages: 2,
	}).WithPause(noPause)

	_, _, err := w.WalkCategory(context.Background(), "c", "C", "/c/", nil, "c")
	require.NoError(t, err)
	// First page plus only the first two pagination pages.
	assert.Len(t, fetcher.calls, 3)
}

func TestWalkCategoryBadPageDoesNotAbort(t *testing.T) {
	t.Parallel()

	listing := listingHTML(entryHTML("/post-a/", "Post A")) +
		`<div class="pagination"><a href="/c/page/2/">2</a><a href="/c/page/3/">3</a></div>`
	store := newMemStore()
	fetcher := &mapFetcher{
		pages: map[string]string{
			testBase + "/c/":        listing,
			testBase + "/c/page/3/": listingHTML(entryHTML("/post-b/", "Post B")),
			testBase + "/post-a/":   detailHTML("a"),
			testBase + "/post-b/":   detailHTML("b"),
		},
		errs: map[string]error{
			testBase + "/c/page/2/": errors.New("boom"),
		},
	}
	w := newTestWalker(store, fetcher)

	_, res, err := w.WalkCategory(context.Background(), "c", "C", "/c/", nil, "c")
	require.NoError(t, err)
	assert.Equal(t, CategoryResult{Scraped: 2, New: 2}, res)
}

func TestWalkCategoryFailedPostStillCountsScraped(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	fetcher := &mapFetcher{
		pages: map[string]string{
			testBase + "/c/":      listingHTML(entryHTML("/post-a/", "A"), entryHTML("/post-b/", "B")),
			testBase + "/post-a/": detailHTML("a"),
		},
		errs: map[string]error{
			testBase + "/post-b/": errors.New("detail fetch failed"),
		},
	}
	w := newTestWalker(store, fetcher)

	_, res, err := w.WalkCategory(context.Background(), "c", "C", "/c/", nil, "c")
	require.NoError(t, err)
	assert.Equal(t, CategoryResult{Scraped: 2, New: 1}, res)
	assert.Equal(t, 1, store.postCount())
}

func TestWalkCategoryFetchFailureKeepsCategoryRow(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	fetcher := &mapFetcher{errs: map[string]error{
		testBase + "/c/": errors.New("site down"),
	}}
	w := newTestWalker(store, fetcher)

	category, _, err := w.WalkCategory(context.Background(), "c", "C", "/c/", nil, "c")
	require.Error(t, err)
	require.NotNil(t, category)

	// The category row was committed before page processing failed.
	store.mu.Lock()
	_, ok := store.categories["c"]
	store.mu.Unlock()
	assert.True(t, ok)
	assert.Equal(t, 0, store.postCount())
}

func TestWalkCategoryUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	fetcher := &mapFetcher{pages: map[string]string{
		testBase + "/c/":      listingHTML(entryHTML("/post-a/", "Post A")),
		testBase + "/post-a/": detailHTML("original", "/files/a.pdf"),
	}}
	w := newTestWalker(store, fetcher)

	_, res, err := w.WalkCategory(context.Background(), "c", "C", "/c/", nil, "c")
	require.NoError(t, err)
	assert.Equal(t, CategoryResult{Scraped: 1, New: 1}, res)

	// Second run sees changed content and a different attachment set.
	fetcher.pages[testBase+"/post-a/"] = detailHTML("revised", "/files/b.xlsx")
	_, res, err = w.WalkCategory(context.Background(), "c", "C", "/c/", nil, "c")
	require.NoError(t, err)
	assert.Equal(t, CategoryResult{Scraped: 1, Updated: 1}, res)
	assert.Equal(t, 1, store.postCount())

	post, ok := store.postByURL(testBase + "/post-a/")
	require.True(t, ok)
	assert.Equal(t, "revised", post.Content)

	store.mu.Lock()
	files := store.attachments[post.ID]
	store.mu.Unlock()
	require.Len(t, files, 1)
	assert.Equal(t, testBase+"/files/b.xlsx", files[0].FileURL)
}

func TestWalkTreeVisitsSubcategories(t *testing.T) {
	t.Parallel()

	cfg := CategoryConfig{
		Slug: "farmaka",
		Name: "Φάρμακα",
		URL:  "/category/farmaka/",
		Subcategories: []SubcategoryConfig{
			{Slug: "anakliseis", Name: "Ανακλήσεις"},
		},
	}
	store := newMemStore()
	fetcher := &mapFetcher{pages: map[string]string{
		testBase + "/category/farmaka/":            listingHTML(entryHTML("/post-a/", "A")),
		testBase + "/category/farmaka/anakliseis/": listingHTML(entryHTML("/post-b/", "B")),
		testBase + "/post-a/":                      detailHTML("a"),
		testBase + "/post-b/":                      detailHTML("b"),
	}}
	w := newTestWalker(store, fetcher)

	total, errs := w.WalkTree(context.Background(), cfg)
	assert.Empty(t, errs)
	assert.Equal(t, CategoryResult{Scraped: 2, New: 2}, total)

	store.mu.Lock()
	parent := store.categories["farmaka"]
	child := store.categories["anakliseis"]
	store.mu.Unlock()
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
	assert.Equal(t, "farmaka", child.CategoryType)
}

func TestWalkTreeRecordsCategoryFailures(t *testing.T) {
	t.Parallel()

	cfg := CategoryConfig{
		Slug: "farmaka",
		Name: "Φάρμακα",
		URL:  "/category/farmaka/",
		Subcategories: []SubcategoryConfig{
			{Slug: "anakliseis", Name: "Ανακλήσεις"},
		},
	}
	store := newMemStore()
	fetcher := &mapFetcher{
		pages: map[string]string{
			testBase + "/category/farmaka/anakliseis/": listingHTML(entryHTML("/post-b/", "B")),
			testBase + "/post-b/":                      detailHTML("b"),
		},
		errs: map[string]error{
			testBase + "/category/farmaka/": errors.New("parent down"),
		},
	}
	w := newTestWalker(store, fetcher)

	total, errs := w.WalkTree(context.Background(), cfg)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "category farmaka")
	// The subcategory still runs and succeeds.
	assert.Equal(t, CategoryResult{Scraped: 1, New: 1}, total)
}
