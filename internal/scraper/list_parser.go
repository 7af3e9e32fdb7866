package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The source markup drifts between themes, so every extraction below is
// an ordered list of fallback selectors; the first one that matches wins.
var (
	listEntrySelectors   = []string{"article", "div.post"}
	listTitleSelectors   = []string{"h3.entry-title a", "h2.entry-title a"}
	listExcerptSelectors = []string{"div.entry-summary", "div.excerpt"}
)

// dateStrategy extracts a raw date string from a listing entry, either
// from an attribute or from the element text.
type dateStrategy struct {
	selector string
	attr     string
}

var listDateStrategies = []dateStrategy{
	{selector: "time", attr: "datetime"},
	{selector: "time"},
	{selector: "span.date"},
}

func (s dateStrategy) extract(entry *goquery.Selection) (string, bool) {
	el := entry.Find(s.selector).First()
	if el.Length() == 0 {
		return "", false
	}
	if s.attr != "" {
		return el.Attr(s.attr)
	}
	return el.Text(), true
}

// ParseList extracts post summaries from a category listing page.
// Malformed entries (no heading anchor, no href) are dropped, not fatal.
func ParseList(htmlSrc, pageURL string) ([]PostSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url %q: %w", pageURL, err)
	}

	var posts []PostSummary
	findFirst(doc.Selection, listEntrySelectors).Each(func(_ int, entry *goquery.Selection) {
		link := findFirst(entry, listTitleSelectors).First()
		if link.Length() == 0 {
			return
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		summary := PostSummary{
			URL:   resolveURL(base, href),
			Title: strings.TrimSpace(link.Text()),
		}
		if excerpt := findFirst(entry, listExcerptSelectors); excerpt.Length() > 0 {
			summary.Excerpt = strings.TrimSpace(excerpt.First().Text())
		}
		for _, strategy := range listDateStrategies {
			raw, ok := strategy.extract(entry)
			if !ok {
				continue
			}
			summary.PublishDate = ParseDate(raw)
			break
		}
		posts = append(posts, summary)
	})
	return posts, nil
}

// findFirst returns the matches of the first selector yielding any node.
// When nothing matches, the (empty) selection of the last selector is
// returned so callers can chain without nil checks.
func findFirst(root *goquery.Selection, selectors []string) *goquery.Selection {
	var matches *goquery.Selection
	for _, sel := range selectors {
		matches = root.Find(sel)
		if matches.Length() > 0 {
			return matches
		}
	}
	return matches
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
