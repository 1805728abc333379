package references

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
)

// Repository persists buyer references.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, ref *models.Reference) error {
	if ref.ID == uuid.Nil {
		ref.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(ref).Error
}

// Get returns the buyer's reference or gorm.ErrRecordNotFound.
func (r *Repository) Get(ctx context.Context, buyerID, id uuid.UUID) (*models.Reference, error) {
	var ref models.Reference
	if err := r.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", id, buyerID).
		First(&ref).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *Repository) List(ctx context.Context, buyerID uuid.UUID) ([]models.Reference, error) {
	var refs []models.Reference
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at ASC, id ASC").
		Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// ListByIDs returns the buyer's references among ids; unknown ids are skipped.
func (r *Repository) ListByIDs(ctx context.Context, buyerID uuid.UUID, ids []uuid.UUID) ([]models.Reference, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var refs []models.Reference
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND id IN ?", buyerID, ids).
		Order("id ASC").
		Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// SaveSignature caches an extracted signature next to the extractor version
// that produced it.
func (r *Repository) SaveSignature(ctx context.Context, id uuid.UUID, version string, payload []byte) error {
	return r.db.WithContext(ctx).
		Model(&models.Reference{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"signature_version": version,
			"signature":         payload,
		}).Error
}

// InUse reports whether any cart intent still points at the reference.
func (r *Repository) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CartIntent{}).
		Where("reference_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Delete(ctx context.Context, buyerID, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", id, buyerID).
		Delete(&models.Reference{})
	return res.RowsAffected, res.Error
}
