package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/pagination"
)

// Repository persists purchase orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateOrder inserts the order and its lines.
func (r *Repository) CreateOrder(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// ListByBuyer returns one page of the buyer's orders, newest first, with their
// lines. The returned cursor is nil on the last page.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PurchaseOrder, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("buyer_id = ?", buyerID)
	if cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var orders []models.PurchaseOrder
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&orders).Error; err != nil {
		return nil, nil, err
	}
	orders, next := pagination.Trim(orders, limit, func(o models.PurchaseOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return orders, next, nil
}
