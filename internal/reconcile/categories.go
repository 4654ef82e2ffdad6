package reconcile

import (
	"context"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
)

func (r *run) reconcileCategories(ctx context.Context, batch Batch) (EntityReport, error) {
	var rep EntityReport
	ctx = r.logg.WithEntity(ctx, string(EntityCategories))
	r.malformed(ctx, EntityCategories, &rep, batch.Malformed[EntityCategories])

	for _, in := range batch.Categories {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		recordCtx := r.logg.WithRecordKey(ctx, in.Slug)
		o, err := r.reconcileCategory(recordCtx, in)
		r.record(recordCtx, EntityCategories, &rep, o, err)
	}
	return rep, nil
}

// reconcileCategory upserts by slug and records the category in the
// IdentityMap, including when it was unchanged.
func (r *run) reconcileCategory(ctx context.Context, in CategoryInput) (outcome, error) {
	if err := checkKey(in); err != nil {
		return outcomeSkipped, err
	}
	existing, err := lookup(r.stores.Categories.FindBySlug(ctx, in.Slug))
	if err != nil {
		return outcomeSkipped, err
	}
	existing = overlay(r, EntityCategories, in.Slug, existing)

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	desired := &models.Category{
		Slug:      in.Slug,
		Name:      in.Name,
		IsActive:  active,
		CreatedAt: r.now,
		UpdatedAt: r.now,
	}
	if existing != nil {
		desired.ID = existing.ID
		desired.CreatedAt = existing.CreatedAt
		if existing.Name == desired.Name && existing.IsActive == desired.IsActive {
			r.identity.Record(in.ID, CategoryRef{ID: existing.ID, Slug: existing.Slug, Name: existing.Name})
			return outcomeUnchanged, nil
		}
	}

	saved, err := write(ctx, r.dryRun, desired, &desired.ID, r.stores.Categories.Upsert)
	if err != nil {
		return outcomeSkipped, err
	}
	r.stage(EntityCategories, in.Slug, saved)
	r.identity.Record(in.ID, CategoryRef{ID: saved.ID, Slug: saved.Slug, Name: saved.Name})
	return changed(existing != nil), nil
}
