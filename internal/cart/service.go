package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/internal/plans"
	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type referenceLoader interface {
	Get(ctx context.Context, buyerID, id uuid.UUID) (*models.Reference, error)
}

type offerLoader interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Offer, error)
}

// IntentInput creates an intent.
type IntentInput struct {
	ReferenceID   uuid.UUID
	Quantity      decimal.Decimal
	PinnedOfferID *uuid.UUID
	Locked        bool
}

// IntentUpdate changes an intent. Nil fields are left as they are;
// ClearPin removes the pin and the lock with it.
type IntentUpdate struct {
	Quantity      *decimal.Decimal
	PinnedOfferID *uuid.UUID
	ClearPin      bool
	Locked        *bool
}

// View is a cart with its intents.
type View struct {
	Cart    models.Cart         `json:"cart"`
	Intents []models.CartIntent `json:"intents"`
}

// Service exposes cart intent operations and the planning state machine.
type Service interface {
	Get(ctx context.Context, buyerID uuid.UUID) (*View, error)
	AddIntent(ctx context.Context, buyerID uuid.UUID, input IntentInput) (*models.CartIntent, error)
	UpdateIntent(ctx context.Context, buyerID, intentID uuid.UUID, input IntentUpdate) (*models.CartIntent, error)
	RemoveIntent(ctx context.Context, buyerID, intentID uuid.UUID) error
	MarkPlanned(ctx context.Context, buyerID uuid.UUID, planID string) error
}

type service struct {
	repo   *Repository
	tx     txRunner
	refs   referenceLoader
	offers offerLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, refs referenceLoader, offers offerLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if refs == nil {
		return nil, fmt.Errorf("reference loader required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer loader required")
	}
	return &service{repo: repo, tx: tx, refs: refs, offers: offers}, nil
}

func (s *service) Get(ctx context.Context, buyerID uuid.UUID) (*View, error) {
	c, err := s.repo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	intents, err := s.repo.ListIntents(ctx, c.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart intents")
	}
	if intents == nil {
		intents = []models.CartIntent{}
	}
	return &View{Cart: *c, Intents: intents}, nil
}

func (s *service) AddIntent(ctx context.Context, buyerID uuid.UUID, input IntentInput) (*models.CartIntent, error) {
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if _, err := s.refs.Get(ctx, buyerID, input.ReferenceID); err != nil {
		return nil, err
	}
	if err := s.checkPin(ctx, input.PinnedOfferID, input.Locked); err != nil {
		return nil, err
	}
	c, err := s.repo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	intent := &models.CartIntent{
		ID:            uuid.New(),
		CartID:        c.ID,
		ReferenceID:   input.ReferenceID,
		Quantity:      input.Quantity,
		PinnedOfferID: input.PinnedOfferID,
		Locked:        input.Locked,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateIntent(ctx, intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create intent")
		}
		return touch(ctx, repo, c)
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *service) UpdateIntent(ctx context.Context, buyerID, intentID uuid.UUID, input IntentUpdate) (*models.CartIntent, error) {
	c, err := s.repo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	intent, err := s.repo.GetIntent(ctx, c.ID, intentID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart intent not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart intent")
	}

	if input.Quantity != nil {
		if !input.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		intent.Quantity = *input.Quantity
	}
	if input.ClearPin {
		intent.PinnedOfferID = nil
		intent.Locked = false
	} else if input.PinnedOfferID != nil {
		intent.PinnedOfferID = input.PinnedOfferID
	}
	if input.Locked != nil {
		intent.Locked = *input.Locked
	}
	if err := s.checkPin(ctx, intent.PinnedOfferID, intent.Locked); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateIntent(ctx, intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update intent")
		}
		return touch(ctx, repo, c)
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *service) RemoveIntent(ctx context.Context, buyerID, intentID uuid.UUID) error {
	c, err := s.repo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		n, err := repo.DeleteIntent(ctx, c.ID, intentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete intent")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart intent not found")
		}
		return touch(ctx, repo, c)
	})
}

// MarkPlanned records the live plan for the cart.
func (s *service) MarkPlanned(ctx context.Context, buyerID uuid.UUID, planID string) error {
	c, err := s.repo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !c.State.CanTransitionTo(enums.CartStatePlanned) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cart in state %s cannot be planned", c.State))
	}
	if err := s.repo.UpdateState(ctx, c.ID, enums.CartStatePlanned, &planID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart planned")
	}
	return nil
}

// Locked intents need a pin. Inactive pins are accepted here and reported by
// the planner.
func (s *service) checkPin(ctx context.Context, pinned *uuid.UUID, locked bool) error {
	if pinned == nil {
		if locked {
			return pkgerrors.New(pkgerrors.CodeValidation, "locked intents require a pinned offer")
		}
		return nil
	}
	offers, err := s.offers.ListByIDs(ctx, []uuid.UUID{*pinned})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pinned offer")
	}
	if len(offers) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pinned offer does not exist")
	}
	return nil
}

// touch moves the cart out of Planned or CheckedOut after an edit.
func touch(ctx context.Context, repo *Repository, c *models.Cart) error {
	next := AfterEdit(c.State)
	if next == c.State {
		return nil
	}
	planID := c.PlanID
	if next == enums.CartStateDraft {
		planID = nil
	}
	if err := repo.UpdateState(ctx, c.ID, next, planID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart state")
	}
	c.State = next
	c.PlanID = planID
	return nil
}

// AfterEdit is the state a cart moves to when its intents change.
func AfterEdit(state enums.CartState) enums.CartState {
	switch state {
	case enums.CartStatePlanned:
		return enums.CartStatePlanChanged
	case enums.CartStateCheckedOut:
		return enums.CartStateDraft
	default:
		return state
	}
}

// HashLines converts intents into the lines a plan hash is computed over.
func HashLines(intents []models.CartIntent) []plans.CartLine {
	lines := make([]plans.CartLine, 0, len(intents))
	for _, in := range intents {
		lines = append(lines, plans.CartLine{
			Key:      plans.LineKey(in.PinnedOfferID, in.ReferenceID),
			Quantity: in.Quantity,
			Locked:   in.Locked,
		})
	}
	return lines
}
