// Package reconcile upserts typed entity batches into the store exactly once
// per natural key, translating transient category ids into store ids.
package reconcile

import (
	"context"
	"io"
	"regexp"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/angelmondragon/catalogsync/pkg/logger"
	"github.com/angelmondragon/catalogsync/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Reconciler applies batches to a store. Dry runs take every decision a
// commit takes but never call Upsert.
type Reconciler struct {
	stores             Stores
	hasher             CredentialHasher
	logg               *logger.Logger
	metrics            *metrics.ReconcileMetrics
	pattern            *regexp.Regexp
	fallbackCredential string
	dryRun             bool
	parallel           bool
	now                func() time.Time
}

// Option customises a Reconciler.
type Option func(*Reconciler)

func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) { r.dryRun = dryRun }
}

// WithParallel reconciles products and users concurrently.
func WithParallel(parallel bool) Option {
	return func(r *Reconciler) { r.parallel = parallel }
}

func WithMetrics(m *metrics.ReconcileMetrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// WithFallbackPattern sets the slug pattern of the default product category.
func WithFallbackPattern(pattern *regexp.Regexp) Option {
	return func(r *Reconciler) { r.pattern = pattern }
}

// WithFallbackCredential sets the credential hashed for users that supply none.
func WithFallbackCredential(credential string) Option {
	return func(r *Reconciler) { r.fallbackCredential = credential }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

var defaultPattern = regexp.MustCompile(`(?i)thuc-uong`)

func New(stores Stores, hasher CredentialHasher, logg *logger.Logger, opts ...Option) *Reconciler {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "reconcile", Output: io.Discard})
	}
	r := &Reconciler{
		stores:  stores,
		hasher:  hasher,
		logg:    logg,
		pattern: defaultPattern,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DryRun reports the configured mode.
func (r *Reconciler) DryRun() bool {
	return r.dryRun
}

// run is the state of one Run call.
type run struct {
	*Reconciler
	id         string
	now        time.Time
	identity   *IdentityMap
	categories *categoryResolver

	mu     sync.Mutex
	users  map[uuid.UUID]struct{}
	staged map[string]any
}

func stagedKey(e Entity, key string) string {
	return string(e) + "\x00" + key
}

// stage remembers a record a dry run would have written so later records
// with the same natural key see it as existing.
func (r *run) stage(e Entity, key string, record any) {
	if !r.dryRun {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staged[stagedKey(e, key)] = record
}

func (r *run) stagedRecord(e Entity, key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.staged[stagedKey(e, key)]
	return rec, ok
}

// overlay returns the record staged under key in a dry run, else found.
func overlay[T any](r *run, e Entity, key string, found *T) *T {
	if !r.dryRun {
		return found
	}
	if rec, ok := r.stagedRecord(e, key); ok {
		if staged, ok := rec.(*T); ok {
			return staged
		}
	}
	return found
}

func (r *run) rememberUser(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = struct{}{}
}

func (r *run) knownUser(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok
}

// Run reconciles categories, then products and users, then orders and blogs.
// Record failures are counted as skipped; only a missing store port or a
// cancelled context returns an error.
func (r *Reconciler) Run(ctx context.Context, batch Batch) (Report, error) {
	identity := NewIdentityMap()
	state := &run{
		Reconciler: r,
		id:         uuid.NewString(),
		now:        normalizeTime(r.now()),
		identity:   identity,
		users:      make(map[uuid.UUID]struct{}),
		staged:     make(map[string]any),
	}
	report := Report{RunID: state.id, DryRun: r.dryRun}
	ctx = r.logg.WithRunID(ctx, state.id)
	ctx = r.logg.WithField(ctx, "dry_run", r.dryRun)

	if err := r.checkStores(batch); err != nil {
		return report, err
	}
	if r.stores.Categories != nil {
		state.categories = newCategoryResolver(identity, r.stores.Categories, r.pattern)
	}

	if batch.Has(EntityCategories) {
		rep, err := state.reconcileCategories(ctx, batch)
		report.Categories = rep
		if err != nil {
			return report, err
		}
	}

	var productRep, userRep EntityReport
	productPhase := func(ctx context.Context) error {
		if !batch.Has(EntityProducts) {
			return nil
		}
		var err error
		productRep, err = state.reconcileProducts(ctx, batch)
		return err
	}
	userPhase := func(ctx context.Context) error {
		if !batch.Has(EntityUsers) {
			return nil
		}
		var err error
		userRep, err = state.reconcileUsers(ctx, batch)
		return err
	}
	if r.parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return productPhase(gctx) })
		g.Go(func() error { return userPhase(gctx) })
		err := g.Wait()
		report.Products, report.Users = productRep, userRep
		if err != nil {
			return report, err
		}
	} else {
		err := productPhase(ctx)
		report.Products = productRep
		if err != nil {
			return report, err
		}
		err = userPhase(ctx)
		report.Users = userRep
		if err != nil {
			return report, err
		}
	}

	if batch.Has(EntityOrders) {
		rep, err := state.reconcileOrders(ctx, batch)
		report.Orders = rep
		if err != nil {
			return report, err
		}
	}
	if batch.Has(EntityBlogs) {
		rep, err := state.reconcileBlogs(ctx, batch)
		report.Blogs = rep
		if err != nil {
			return report, err
		}
	}

	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"upserted": report.Upserted(),
		"skipped":  report.Skipped(),
	}), "reconciliation finished")
	return report, nil
}

func (r *Reconciler) checkStores(batch Batch) error {
	missing := func(e Entity) error {
		return pkgerrors.New(pkgerrors.CodeConfig, "no store configured for "+string(e))
	}
	if (batch.Has(EntityCategories) || batch.Has(EntityProducts) || batch.Has(EntityBlogs)) && r.stores.Categories == nil {
		return missing(EntityCategories)
	}
	if batch.Has(EntityProducts) && r.stores.Products == nil {
		return missing(EntityProducts)
	}
	if (batch.Has(EntityUsers) || batch.Has(EntityOrders)) && r.stores.Users == nil {
		return missing(EntityUsers)
	}
	if batch.Has(EntityUsers) && r.hasher == nil {
		return pkgerrors.New(pkgerrors.CodeConfig, "no credential hasher configured")
	}
	if batch.Has(EntityOrders) && r.stores.Orders == nil {
		return missing(EntityOrders)
	}
	if batch.Has(EntityBlogs) && r.stores.Blogs == nil {
		return missing(EntityBlogs)
	}
	return nil
}

// record tallies one outcome and logs skips with their reason.
func (r *run) record(ctx context.Context, e Entity, rep *EntityReport, o outcome, err error) {
	if err != nil {
		o = outcomeSkipped
	}
	rep.add(o)
	r.metrics.Record(string(e), string(o), r.dryRun)

	if o == outcomeSkipped {
		fields := map[string]any{"reason": string(pkgerrors.CodeOf(err))}
		if err != nil {
			fields["error"] = err.Error()
		}
		r.logg.Warn(r.logg.WithFields(ctx, fields), "record skipped")
		return
	}
	r.logg.Debug(r.logg.WithField(ctx, "outcome", string(o)), "record reconciled")
}

// fallback logs and counts a non-primary policy decision.
func (r *run) fallback(ctx context.Context, e Entity, field string, policy Policy) {
	r.metrics.Fallback(string(e), string(policy))
	r.logg.Debug(r.logg.WithFields(ctx, map[string]any{"field": field, "policy": string(policy)}), "fallback applied")
}

// malformed counts records the parse boundary dropped.
func (r *run) malformed(ctx context.Context, e Entity, rep *EntityReport, n int) {
	for i := 0; i < n; i++ {
		r.record(ctx, e, rep, outcomeSkipped, pkgerrors.New(pkgerrors.CodeMalformed, "record is not an object"))
	}
}

// lookup turns a not-found error into a nil result.
func lookup[T any](found *T, err error) (*T, error) {
	if err == nil {
		return found, nil
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, nil
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup by natural key")
}

// write upserts desired unless the run is dry, in which case desired is
// returned with a placeholder id when it has none.
func write[T any](ctx context.Context, dryRun bool, desired *T, id *uuid.UUID, upsert func(context.Context, *T) (*T, error)) (*T, error) {
	if dryRun {
		if *id == uuid.Nil {
			*id = placeholderID()
		}
		return desired, nil
	}
	saved, err := upsert(ctx, desired)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert")
	}
	return saved, nil
}

func changed(existing bool) outcome {
	if existing {
		return outcomeUpdated
	}
	return outcomeInserted
}
