package reconcile

import (
	"context"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (r *run) reconcileOrders(ctx context.Context, batch Batch) (EntityReport, error) {
	var rep EntityReport
	ctx = r.logg.WithEntity(ctx, string(EntityOrders))
	r.malformed(ctx, EntityOrders, &rep, batch.Malformed[EntityOrders])

	for _, in := range batch.Orders {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		recordCtx := r.logg.WithRecordKey(ctx, in.OrderNo)
		o, err := r.reconcileOrder(recordCtx, in)
		r.record(recordCtx, EntityOrders, &rep, o, err)
	}
	return rep, nil
}

func (r *run) reconcileOrder(ctx context.Context, in OrderInput) (outcome, error) {
	if err := checkKey(in); err != nil {
		return outcomeSkipped, err
	}
	userID, err := r.resolveUser(ctx, in.UserID)
	if err != nil {
		return outcomeSkipped, err
	}
	existing, err := lookup(r.stores.Orders.FindByOrderNo(ctx, in.OrderNo))
	if err != nil {
		return outcomeSkipped, err
	}
	existing = overlay(r, EntityOrders, in.OrderNo, existing)

	items, sum := lineItems(in.Items)
	subtotal := sum
	if in.Subtotal != nil && *in.Subtotal != 0 {
		subtotal = money(*in.Subtotal)
	} else if len(in.Items) > 0 {
		r.fallback(ctx, EntityOrders, "subtotal", PolicyDefault)
	}
	total := subtotal
	if in.TotalAmount != nil && *in.TotalAmount != 0 {
		total = money(*in.TotalAmount)
	}

	status, policy := orderStatus(in.Status)
	if policy == PolicyDefault && in.Status != "" {
		r.logg.Warn(r.logg.WithField(ctx, "order_status", in.Status), "unknown order status coerced to initial status")
		r.fallback(ctx, EntityOrders, "order_status", policy)
	}

	var stored models.Order
	if existing != nil {
		stored = *existing
	}
	createdAt, _ := timestamp(in.CreatedAt, stored.CreatedAt, existing != nil, r.now)
	updatedAt, _ := timestamp(in.UpdatedAt, stored.UpdatedAt, existing != nil, createdAt)

	desired := &models.Order{
		OrderNo:         in.OrderNo,
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		TotalAmount:     total,
		ShippingAddress: in.ShippingAddress,
		Status:          status,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
	if existing != nil {
		desired.ID = existing.ID
		if sameOrder(existing, desired) {
			return outcomeUnchanged, nil
		}
		if in.UpdatedAt == nil {
			desired.UpdatedAt = r.now
		}
	}

	saved, err := write(ctx, r.dryRun, desired, &desired.ID, r.stores.Orders.Upsert)
	if err != nil {
		return outcomeSkipped, err
	}
	r.stage(EntityOrders, in.OrderNo, saved)
	return changed(existing != nil), nil
}

// resolveUser accepts a user reconciled earlier in this run or one already
// in the store.
func (r *run) resolveUser(ctx context.Context, ref string) (uuid.UUID, error) {
	id, ok := ResolveID(ref)
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnresolvedRef, "missing or invalid user_id")
	}
	if r.knownUser(id) {
		return id, nil
	}
	found, err := lookup(r.stores.Users.FindByID(ctx, id))
	if err != nil {
		return uuid.Nil, err
	}
	if found == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnresolvedRef, "user_id does not reference a known user").
			WithDetails(map[string]any{"user_id": ref})
	}
	return found.ID, nil
}

// lineItems clamps quantities at zero and derives absent or zero line
// totals from quantity times unit price.
func lineItems(in []OrderItemInput) ([]models.OrderLineItem, decimal.Decimal) {
	items := make([]models.OrderLineItem, 0, len(in))
	sum := decimal.Zero
	for _, it := range in {
		qty := it.Quantity
		if qty < 0 {
			qty = 0
		}
		unit := money(it.UnitPrice)
		line := unit.Mul(decimal.NewFromInt(int64(qty)))
		if it.LineTotal != nil && *it.LineTotal != 0 {
			line = money(*it.LineTotal)
		}
		items = append(items, models.OrderLineItem{
			ProductName: it.ProductName,
			Quantity:    qty,
			UnitPrice:   unit,
			LineTotal:   line,
		})
		sum = sum.Add(line)
	}
	return items, sum
}

func sameOrder(a, b *models.Order) bool {
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		x, y := a.Items[i], b.Items[i]
		if x.ProductName != y.ProductName || x.Quantity != y.Quantity ||
			!x.UnitPrice.Equal(y.UnitPrice) || !x.LineTotal.Equal(y.LineTotal) {
			return false
		}
	}
	return a.UserID == b.UserID &&
		a.Subtotal.Equal(b.Subtotal) &&
		a.TotalAmount.Equal(b.TotalAmount) &&
		a.ShippingAddress == b.ShippingAddress &&
		a.Status == b.Status &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
