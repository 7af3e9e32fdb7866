package scraper

import (
	"context"

	"go.uber.org/zap"
)

// upsertPost processes one discovered post: fetch its detail page, parse
// it, and create or refresh the stored row keyed by URL. Any failure is
// contained to this post and reported as OutcomeError.
func (w *Walker) upsertPost(ctx context.Context, tx Tx, summary PostSummary, category Category) Outcome {
	existing, err := tx.GetPostByURL(ctx, summary.URL)
	if err != nil {
		w.logger.Error("post lookup failed", zap.String("url", summary.URL), zap.Error(err))
		return OutcomeError
	}

	html, err := w.fetcher.Fetch(ctx, summary.URL)
	if err != nil {
		w.logger.Error("post fetch failed", zap.String("url", summary.URL), zap.Error(err))
		return OutcomeError
	}
	content, err := ParseContent(html, summary.URL)
	if err != nil {
		w.logger.Error("post parse failed", zap.String("url", summary.URL), zap.Error(err))
		return OutcomeError
	}

	now := w.clock.Now().UTC()
	if existing != nil {
		existing.Title = summary.Title
		existing.Content = content.Content
		existing.Excerpt = summary.Excerpt
		existing.MetaDescription = content.MetaDescription
		existing.Tags = content.Tags
		// Last writer wins when category boundaries share a URL.
		existing.CategoryID = category.ID
		existing.LastModified = now
		if err := tx.UpdatePost(ctx, existing); err != nil {
			w.logger.Error("post update failed", zap.String("url", summary.URL), zap.Error(err))
			return OutcomeError
		}
		if err := tx.ReplaceAttachments(ctx, existing.ID, content.Attachments); err != nil {
			w.logger.Error("attachment replace failed", zap.String("url", summary.URL), zap.Error(err))
			return OutcomeError
		}
		return OutcomeUpdated
	}

	post := &Post{
		Title:           summary.Title,
		URL:             summary.URL,
		Content:         content.Content,
		Excerpt:         summary.Excerpt,
		CategoryID:      category.ID,
		PublishDate:     summary.PublishDate,
		MetaDescription: content.MetaDescription,
		Tags:            content.Tags,
		IsActive:        true,
		ScrapedAt:       now,
		LastModified:    now,
	}
	if err := tx.CreatePost(ctx, post); err != nil {
		w.logger.Error("post insert failed", zap.String("url", summary.URL), zap.Error(err))
		return OutcomeError
	}
	if err := tx.ReplaceAttachments(ctx, post.ID, content.Attachments); err != nil {
		w.logger.Error("attachment insert failed", zap.String("url", summary.URL), zap.Error(err))
		return OutcomeError
	}
	return OutcomeNew
}
