package references

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/internal/matching"
	"github.com/angelmondragon/procurematch-backend/internal/signature"
	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
)

type snapshotSource interface {
	Current() *catalog.Snapshot
}

// CreateInput describes a new reference.
type CreateInput struct {
	RawName         string
	Category        string
	BrandCritical   bool
	TargetBrand     string
	TargetPackValue *float64
	TargetPackUnit  string
	PackTolerance   *float64
}

// Service manages buyer references.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, input CreateInput) (*models.Reference, error)
	Get(ctx context.Context, buyerID, id uuid.UUID) (*models.Reference, error)
	List(ctx context.Context, buyerID uuid.UUID) ([]models.Reference, error)
	Delete(ctx context.Context, buyerID, id uuid.UUID) error
	Resolve(ctx context.Context, buyerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]matching.Reference, error)
}

type service struct {
	repo    *Repository
	catalog snapshotSource
}

func NewService(repo *Repository, snapshots snapshotSource) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reference repository required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("catalog snapshot source required")
	}
	return &service{repo: repo, catalog: snapshots}, nil
}

// Create validates the constraints and caches the extracted signature when a
// catalog snapshot is loaded.
func (s *service) Create(ctx context.Context, buyerID uuid.UUID, input CreateInput) (*models.Reference, error) {
	name := strings.TrimSpace(input.RawName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raw_name is required")
	}
	if input.PackTolerance != nil && (*input.PackTolerance < 0 || *input.PackTolerance > 1) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack_tolerance must be between 0 and 1")
	}
	if input.TargetPackValue != nil {
		if *input.TargetPackValue <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "target_pack_value must be positive")
		}
		if _, _, ok := signature.ParseUnit(input.TargetPackUnit); !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "target_pack_unit is not a known unit")
		}
	}

	ref := &models.Reference{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		RawName:         name,
		Category:        optional(input.Category),
		BrandCritical:   input.BrandCritical,
		TargetBrand:     optional(input.TargetBrand),
		TargetPackValue: input.TargetPackValue,
		TargetPackUnit:  optional(input.TargetPackUnit),
		PackTolerance:   input.PackTolerance,
	}
	if snap := s.catalog.Current(); snap != nil {
		sig := snap.Extractor.Extract(name)
		payload, err := json.Marshal(sig)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode signature")
		}
		ref.SignatureVersion = &sig.Version
		ref.SignatureJSON = payload
	}
	if err := s.repo.Create(ctx, ref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reference")
	}
	return ref, nil
}

func (s *service) Get(ctx context.Context, buyerID, id uuid.UUID) (*models.Reference, error) {
	ref, err := s.repo.Get(ctx, buyerID, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reference not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reference")
	}
	return ref, nil
}

func (s *service) List(ctx context.Context, buyerID uuid.UUID) ([]models.Reference, error) {
	refs, err := s.repo.List(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list references")
	}
	return refs, nil
}

// Delete refuses references still used by cart intents.
func (s *service) Delete(ctx context.Context, buyerID, id uuid.UUID) error {
	if _, err := s.Get(ctx, buyerID, id); err != nil {
		return err
	}
	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check reference usage")
	}
	if inUse {
		return pkgerrors.New(pkgerrors.CodeConflict, "reference is used by the cart")
	}
	if _, err := s.repo.Delete(ctx, buyerID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reference")
	}
	return nil
}

// Resolve loads references as matcher input keyed by id. Stale cached
// signatures are refreshed in place.
func (s *service) Resolve(ctx context.Context, buyerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]matching.Reference, error) {
	rows, err := s.repo.ListByIDs(ctx, buyerID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load references")
	}
	snap := s.catalog.Current()
	out := make(map[uuid.UUID]matching.Reference, len(rows))
	for _, row := range rows {
		ref := ToMatching(row)
		if snap != nil && (ref.Stored == nil || ref.Stored.Version != snap.Extractor.Version()) {
			sig := snap.Extractor.Extract(row.RawName)
			if payload, err := json.Marshal(sig); err == nil {
				if err := s.repo.SaveSignature(ctx, row.ID, sig.Version, payload); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh reference signature")
				}
			}
			ref.Stored = &sig
		}
		out[row.ID] = ref
	}
	return out, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
