package reconcile

import (
	"context"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
	dbtypes "github.com/angelmondragon/catalogsync/pkg/db/types"
	"github.com/shopspring/decimal"
)

func (r *run) reconcileProducts(ctx context.Context, batch Batch) (EntityReport, error) {
	var rep EntityReport
	ctx = r.logg.WithEntity(ctx, string(EntityProducts))
	r.malformed(ctx, EntityProducts, &rep, batch.Malformed[EntityProducts])

	for _, in := range batch.Products {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		recordCtx := r.logg.WithRecordKey(ctx, in.SKU)
		o, err := r.reconcileProduct(recordCtx, in)
		r.record(recordCtx, EntityProducts, &rep, o, err)
	}
	return rep, nil
}

func (r *run) reconcileProduct(ctx context.Context, in ProductInput) (outcome, error) {
	if err := checkKey(in); err != nil {
		return outcomeSkipped, err
	}

	categoryID, policy, err := r.categories.forProduct(ctx, in)
	if err != nil {
		return outcomeSkipped, err
	}
	if policy != PolicyOldID {
		r.fallback(ctx, EntityProducts, "category_id", policy)
	}

	existing, err := lookup(r.stores.Products.FindBySKU(ctx, in.SKU))
	if err != nil {
		return outcomeSkipped, err
	}
	existing = overlay(r, EntityProducts, in.SKU, existing)

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	images := dbtypes.StringList(in.Images)
	if images == nil {
		images = dbtypes.StringList{}
	}
	desired := &models.Product{
		SKU:           in.SKU,
		Name:          in.Name,
		CategoryID:    categoryID,
		Price:         money(in.Price),
		StockQuantity: in.StockQuantity,
		IsActive:      active,
		Description:   in.Description,
		Images:        images,
		CreatedAt:     r.now,
		UpdatedAt:     r.now,
	}
	if existing != nil {
		desired.ID = existing.ID
		desired.CreatedAt = existing.CreatedAt
		if sameProduct(existing, desired) {
			return outcomeUnchanged, nil
		}
	}

	saved, err := write(ctx, r.dryRun, desired, &desired.ID, r.stores.Products.Upsert)
	if err != nil {
		return outcomeSkipped, err
	}
	r.stage(EntityProducts, in.SKU, saved)
	return changed(existing != nil), nil
}

func sameProduct(a, b *models.Product) bool {
	return a.Name == b.Name &&
		a.CategoryID == b.CategoryID &&
		a.Price.Equal(b.Price) &&
		a.StockQuantity == b.StockQuantity &&
		a.IsActive == b.IsActive &&
		a.Description == b.Description &&
		a.Images.Equal(b.Images)
}

// money rounds to the two decimals the store keeps.
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
