package orders

import (
	"context"

	pkgdb "github.com/angelmondragon/catalogsync/pkg/db"
	"github.com/angelmondragon/catalogsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists imported orders.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		return nil, pkgdb.Classify(err, "find order by order_no")
	}
	return &order, nil
}

// ListByUser returns a user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, pkgdb.Classify(err, "list orders by user")
	}
	return rows, nil
}

var orderUpdateColumns = []string{
	"user_id", "items", "subtotal", "total_amount", "shipping_address", "order_status", "created_at", "updated_at",
}

func (r *Repository) Upsert(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	var saved models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_no"}},
			DoUpdates: clause.AssignmentColumns(orderUpdateColumns),
		}).Create(order).Error; err != nil {
			return err
		}
		return tx.Where("order_no = ?", order.OrderNo).First(&saved).Error
	})
	if err != nil {
		return nil, pkgdb.Classify(err, "upsert order")
	}
	return &saved, nil
}
