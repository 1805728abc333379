package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

// Repository persists carts and their intents.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
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

// FindByBuyer returns the buyer's cart or gorm.ErrRecordNotFound.
func (r *Repository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	if err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreate returns the buyer's cart, creating a draft one on first use.
func (r *Repository) GetOrCreate(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	c, err := r.FindByBuyer(ctx, buyerID)
	if err == nil {
		return c, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}
	c = &models.Cart{ID: uuid.New(), BuyerID: buyerID, State: enums.CartStateDraft}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return r.FindByBuyer(ctx, buyerID)
		}
		return nil, err
	}
	return c, nil
}

// ListIntents returns the cart's intents ordered by id.
func (r *Repository) ListIntents(ctx context.Context, cartID uuid.UUID) ([]models.CartIntent, error) {
	var intents []models.CartIntent
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&intents).Error; err != nil {
		return nil, err
	}
	return intents, nil
}

func (r *Repository) GetIntent(ctx context.Context, cartID, id uuid.UUID) (*models.CartIntent, error) {
	var intent models.CartIntent
	if err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", id, cartID).
		First(&intent).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *Repository) CreateIntent(ctx context.Context, intent *models.CartIntent) error {
	if intent.ID == uuid.Nil {
		intent.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(intent).Error
}

// UpdateIntent writes quantity, pin and lock, including zero values.
func (r *Repository) UpdateIntent(ctx context.Context, intent *models.CartIntent) error {
	return r.db.WithContext(ctx).
		Model(&models.CartIntent{}).
		Where("id = ? AND cart_id = ?", intent.ID, intent.CartID).
		Updates(map[string]any{
			"quantity":        intent.Quantity,
			"pinned_offer_id": intent.PinnedOfferID,
			"locked":          intent.Locked,
		}).Error
}

func (r *Repository) DeleteIntent(ctx context.Context, cartID, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", id, cartID).
		Delete(&models.CartIntent{})
	return res.RowsAffected, res.Error
}

// DeleteIntents clears the cart.
func (r *Repository) DeleteIntents(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartIntent{}).Error
}

// UpdateState sets the cart state and plan id.
func (r *Repository) UpdateState(ctx context.Context, cartID uuid.UUID, state enums.CartState, planID *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"state":   state,
			"plan_id": planID,
		}).Error
}

// MarkStalePlans moves carts still planned since before the cutoff to
// plan-changed so the next request re-plans them.
func (r *Repository) MarkStalePlans(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("state = ? AND updated_at <= ?", enums.CartStatePlanned, before).
		Update("state", enums.CartStatePlanChanged)
	return res.RowsAffected, res.Error
}
