package reconcile

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
	"github.com/angelmondragon/catalogsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/google/uuid"
)

// Policy names one step of a fallback chain. Each reference or coerced value
// records the step that produced it.
type Policy string

const (
	// product -> category
	PolicyOldID   Policy = "old_id"
	PolicySlug    Policy = "slug"
	PolicyPattern Policy = "pattern"
	PolicyAny     Policy = "any"

	// blog -> category
	PolicyExplicit Policy = "explicit"
	PolicyMappedID Policy = "mapped_id"
	PolicyEmpty    Policy = "empty"

	// value coercion
	PolicyInput   Policy = "input"
	PolicyDefault Policy = "default"
	PolicyStored  Policy = "stored"
	PolicyClock   Policy = "clock"
)

// categoryResolver walks the category fallback chains for products and
// blogs. The store listing is read at most once per run.
type categoryResolver struct {
	identity *IdentityMap
	store    CategoryStore
	pattern  *regexp.Regexp

	mu     sync.Mutex
	listed bool
	stored []models.Category
}

func newCategoryResolver(identity *IdentityMap, store CategoryStore, pattern *regexp.Regexp) *categoryResolver {
	return &categoryResolver{identity: identity, store: store, pattern: pattern}
}

func (r *categoryResolver) storedCategories(ctx context.Context) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listed {
		return r.stored, nil
	}
	list, err := r.store.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	r.stored = list
	r.listed = true
	return list, nil
}

// forProduct resolves a product's category: transient id, then slug, then
// the first category whose slug matches the default pattern, then any
// category at all. It only fails when no category exists anywhere.
func (r *categoryResolver) forProduct(ctx context.Context, in ProductInput) (uuid.UUID, Policy, error) {
	if in.CategoryID != "" {
		if id, ok := r.identity.ByOldID(in.CategoryID); ok {
			return id, PolicyOldID, nil
		}
	}

	if in.CategorySlug != "" {
		if id, ok := r.identity.BySlug(in.CategorySlug); ok {
			return id, PolicySlug, nil
		}
		found, err := r.store.FindBySlug(ctx, in.CategorySlug)
		switch {
		case err == nil:
			return found.ID, PolicySlug, nil
		case !pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find category by slug")
		}
	}

	run := r.identity.Categories()
	stored, err := r.storedCategories(ctx)
	if err != nil {
		return uuid.Nil, "", err
	}

	if r.pattern != nil {
		for _, ref := range run {
			if r.pattern.MatchString(ref.Slug) {
				return ref.ID, PolicyPattern, nil
			}
		}
		for _, c := range stored {
			if r.pattern.MatchString(c.Slug) {
				return c.ID, PolicyPattern, nil
			}
		}
	}

	if len(run) > 0 {
		return run[0].ID, PolicyAny, nil
	}
	if len(stored) > 0 {
		return stored[0].ID, PolicyAny, nil
	}
	return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnresolvedRef, "no category available for product")
}

// forBlog resolves a blog's category label: explicit string, then slug, then
// the slug (or name) of the category behind category_id, then "".
func (r *categoryResolver) forBlog(ctx context.Context, in BlogInput) (string, Policy) {
	if in.Category != "" {
		return in.Category, PolicyExplicit
	}
	if in.CategorySlug != "" {
		return in.CategorySlug, PolicySlug
	}
	if in.CategoryID == "" {
		return "", PolicyEmpty
	}

	id, ok := r.identity.ByOldID(in.CategoryID)
	if !ok {
		id, ok = ResolveID(in.CategoryID)
	}
	if !ok {
		return "", PolicyEmpty
	}
	if ref, found := r.identity.Ref(id); found {
		return labelOf(ref.Slug, ref.Name), PolicyMappedID
	}
	stored, err := r.store.FindByID(ctx, id)
	if err != nil {
		return "", PolicyEmpty
	}
	if label := labelOf(stored.Slug, stored.Name); label != "" {
		return label, PolicyMappedID
	}
	return "", PolicyEmpty
}

func labelOf(slug, name string) string {
	if slug != "" {
		return slug
	}
	return name
}

// orderStatus coerces unknown values to the initial status.
func orderStatus(raw string) (enums.OrderStatus, Policy) {
	if raw == "" {
		return enums.OrderStatusInitial, PolicyDefault
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		// Case variants of a known status are accepted.
		for _, candidate := range []enums.OrderStatus{
			enums.OrderStatusPending, enums.OrderStatusProcessing, enums.OrderStatusShipped,
			enums.OrderStatusDelivered, enums.OrderStatusCancelled,
		} {
			if strings.EqualFold(string(candidate), raw) {
				return candidate, PolicyInput
			}
		}
		return enums.OrderStatusInitial, PolicyDefault
	}
	return status, PolicyInput
}

func userStatus(raw string) (enums.UserStatus, Policy) {
	status, err := enums.ParseUserStatus(strings.ToLower(raw))
	if err != nil {
		return enums.UserStatusUnverified, PolicyDefault
	}
	return status, PolicyInput
}

func userRole(raw string) (enums.UserRole, Policy) {
	role, err := enums.ParseUserRole(strings.ToLower(raw))
	if err != nil {
		return enums.UserRoleCustomer, PolicyDefault
	}
	return role, PolicyInput
}

// timestamp picks the input value, else the stored one, else the run clock.
func timestamp(input *time.Time, stored time.Time, hasStored bool, now time.Time) (time.Time, Policy) {
	if input != nil {
		return normalizeTime(*input), PolicyInput
	}
	if hasStored && !stored.IsZero() {
		return normalizeTime(stored), PolicyStored
	}
	return normalizeTime(now), PolicyClock
}
