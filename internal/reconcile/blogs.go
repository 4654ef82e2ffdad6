package reconcile

import (
	"context"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
	dbtypes "github.com/angelmondragon/catalogsync/pkg/db/types"
	"github.com/angelmondragon/catalogsync/pkg/sanitize"
	"github.com/google/uuid"
)

func (r *run) reconcileBlogs(ctx context.Context, batch Batch) (EntityReport, error) {
	var rep EntityReport
	ctx = r.logg.WithEntity(ctx, string(EntityBlogs))
	r.malformed(ctx, EntityBlogs, &rep, batch.Malformed[EntityBlogs])

	for _, in := range batch.Blogs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		recordCtx := r.logg.WithRecordKey(ctx, in.Title)
		o, err := r.reconcileBlog(recordCtx, in)
		r.record(recordCtx, EntityBlogs, &rep, o, err)
	}
	return rep, nil
}

// reconcileBlog keys a post by its preserved id when that resolves, else by
// title and display date. Category resolution never rejects the post.
func (r *run) reconcileBlog(ctx context.Context, in BlogInput) (outcome, error) {
	if err := checkKey(in); err != nil {
		return outcomeSkipped, err
	}

	preserved, hasID := ResolveID(in.ID)
	var (
		existing *models.Blog
		err      error
	)
	if hasID {
		existing, err = lookup(r.stores.Blogs.FindByID(ctx, preserved))
	} else {
		existing, err = lookup(r.stores.Blogs.FindByTitleDate(ctx, in.Title, in.DateDisplay))
	}
	if err != nil {
		return outcomeSkipped, err
	}
	if hasID {
		existing = overlay(r, EntityBlogs, blogIDKey(preserved), existing)
	} else {
		existing = overlay(r, EntityBlogs, blogTitleKey(in.Title, in.DateDisplay), existing)
	}

	category, policy := r.categories.forBlog(ctx, in)
	if policy != PolicyExplicit {
		r.fallback(ctx, EntityBlogs, "category", policy)
	}

	var stored models.Blog
	if existing != nil {
		stored = *existing
	}
	createdAt, _ := timestamp(in.CreatedAt, stored.CreatedAt, existing != nil, r.now)
	updatedAt, _ := timestamp(in.UpdatedAt, stored.UpdatedAt, existing != nil, createdAt)

	tags := dbtypes.StringList(in.Tags)
	if tags == nil {
		tags = dbtypes.StringList{}
	}
	desired := &models.Blog{
		Title:        in.Title,
		DateDisplay:  in.DateDisplay,
		Category:     category,
		Content:      sanitize.HTML(in.Content),
		Lead:         in.Lead,
		AttachedFile: in.AttachedFile,
		LikeCount:    in.LikeCount,
		CommentCount: in.CommentCount,
		ShareCount:   in.ShareCount,
		Tags:         tags,
		CTA:          blogCTA(in.CTA),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	switch {
	case existing != nil:
		desired.ID = existing.ID
		if sameBlog(existing, desired) {
			return outcomeUnchanged, nil
		}
		if in.UpdatedAt == nil {
			desired.UpdatedAt = r.now
		}
	case hasID:
		desired.ID = preserved
	case !r.dryRun:
		desired.ID = uuid.New()
	}

	saved, err := write(ctx, r.dryRun, desired, &desired.ID, r.stores.Blogs.Upsert)
	if err != nil {
		return outcomeSkipped, err
	}
	r.stage(EntityBlogs, blogIDKey(saved.ID), saved)
	r.stage(EntityBlogs, blogTitleKey(saved.Title, saved.DateDisplay), saved)
	return changed(existing != nil), nil
}

func blogIDKey(id uuid.UUID) string {
	return "id:" + id.String()
}

func blogTitleKey(title string, dateDisplay *string) string {
	if dateDisplay == nil {
		return "title:" + title
	}
	return "title:" + title + "\x00" + *dateDisplay
}

func blogCTA(in []CTAInput) []models.BlogCTA {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.BlogCTA, 0, len(in))
	for _, c := range in {
		out = append(out, models.BlogCTA{Label: c.Label, Href: c.Href, Kind: c.Kind})
	}
	return out
}

func sameBlog(a, b *models.Blog) bool {
	if len(a.CTA) != len(b.CTA) {
		return false
	}
	for i := range a.CTA {
		if a.CTA[i] != b.CTA[i] {
			return false
		}
	}
	return a.Title == b.Title &&
		sameText(a.DateDisplay, b.DateDisplay) &&
		a.Category == b.Category &&
		a.Content == b.Content &&
		sameText(a.Lead, b.Lead) &&
		sameText(a.AttachedFile, b.AttachedFile) &&
		a.LikeCount == b.LikeCount &&
		a.CommentCount == b.CommentCount &&
		a.ShareCount == b.ShareCount &&
		a.Tags.Equal(b.Tags) &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
