package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/internal/classifier"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
)

// Repository reads offers, brands and supplier minimums.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListActive returns every active offer ordered by id.
func (r *Repository) ListActive(ctx context.Context) ([]Offer, error) {
	var rows []models.Offer
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOffers(rows), nil
}

// ListActiveByCategory returns active offers in category or any of its subcategories.
func (r *Repository) ListActiveByCategory(ctx context.Context, category string) ([]Offer, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, nil
	}
	var rows []models.Offer
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("category = ? OR category LIKE ?", category, category+".%").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOffers(rows), nil
}

// ListByIDs loads offers regardless of their active flag so callers can diagnose inactive pins.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Offer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Offer
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOffers(rows), nil
}

// ListClassified returns classifier training documents: active offers with a known category.
func (r *Repository) ListClassified(ctx context.Context) ([]classifier.Document, error) {
	var rows []models.Offer
	if err := r.db.WithContext(ctx).
		Select("raw_name", "category").
		Where("is_active = ?", true).
		Where("category <> '' AND category <> ?", classifier.Uncategorized).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]classifier.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, classifier.Document{Category: row.Category, Text: row.RawName})
	}
	return docs, nil
}

// ListBrands returns the brand alias table.
func (r *Repository) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var rows []models.Brand
	if err := r.db.WithContext(ctx).Order("canonical ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Minimums returns the minimum order amount per supplier. Inactive suppliers are omitted.
func (r *Repository) Minimums(ctx context.Context, supplierIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(supplierIDs))
	if len(supplierIDs) == 0 {
		return out, nil
	}
	var rows []models.Supplier
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", supplierIDs, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.MinOrderAmount
	}
	return out, nil
}

func toOffers(rows []models.Offer) []Offer {
	out := make([]Offer, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
