package scraper

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var paginationSelectors = []string{"div.basel-pagination", "div.pagination", "nav.pagination"}

// pageIndicator marks anchors that point at follow-on listing pages.
const pageIndicator = "page"

// ResolvePages discovers follow-on page URLs for a category listing.
// The result is absolute, deduplicated and sorted ascending so repeat
// runs visit pages in the same order. An empty result is a valid
// single-page category.
func ResolvePages(htmlSrc, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	container := findFirst(doc.Selection, paginationSelectors)
	if container.Length() == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var pages []string
	container.First().Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.Contains(href, pageIndicator) {
			return
		}
		full := resolveURL(base, href)
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		pages = append(pages, full)
	})
	sort.Strings(pages)
	return pages, nil
}
