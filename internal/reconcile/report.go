package reconcile

import (
	"github.com/angelmondragon/catalogsync/pkg/metrics"
)

type outcome string

const (
	outcomeInserted  outcome = metrics.OutcomeInserted
	outcomeUpdated   outcome = metrics.OutcomeUpdated
	outcomeUnchanged outcome = metrics.OutcomeUnchanged
	outcomeSkipped   outcome = metrics.OutcomeSkipped
)

// EntityReport counts one entity's outcomes.
// Attempted = Upserted + Unchanged + Skipped and Upserted = Inserted + Updated.
type EntityReport struct {
	Attempted int `json:"attempted"`
	Upserted  int `json:"upserted"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

func (r *EntityReport) add(o outcome) {
	r.Attempted++
	switch o {
	case outcomeInserted:
		r.Inserted++
		r.Upserted++
	case outcomeUpdated:
		r.Updated++
		r.Upserted++
	case outcomeUnchanged:
		r.Unchanged++
	default:
		r.Skipped++
	}
}

// Report is the result of one run.
type Report struct {
	RunID      string       `json:"run_id"`
	DryRun     bool         `json:"dry_run"`
	Categories EntityReport `json:"categories"`
	Products   EntityReport `json:"products"`
	Users      EntityReport `json:"users"`
	Orders     EntityReport `json:"orders"`
	Blogs      EntityReport `json:"blogs"`
}

// For returns the counters of entity e.
func (r *Report) For(e Entity) *EntityReport {
	switch e {
	case EntityCategories:
		return &r.Categories
	case EntityProducts:
		return &r.Products
	case EntityUsers:
		return &r.Users
	case EntityOrders:
		return &r.Orders
	case EntityBlogs:
		return &r.Blogs
	}
	return nil
}

// Upserted sums the upserts across entities.
func (r Report) Upserted() int {
	return r.Categories.Upserted + r.Products.Upserted + r.Users.Upserted + r.Orders.Upserted + r.Blogs.Upserted
}

// Skipped sums the skips across entities.
func (r Report) Skipped() int {
	return r.Categories.Skipped + r.Products.Skipped + r.Users.Skipped + r.Orders.Skipped + r.Blogs.Skipped
}
