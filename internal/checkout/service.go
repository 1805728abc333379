// Package checkout converts a validated order plan into purchase orders.
package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/internal/cart"
	"github.com/angelmondragon/procurematch-backend/internal/optimizer"
	"github.com/angelmondragon/procurematch-backend/internal/plans"
	"github.com/angelmondragon/procurematch-backend/pkg/db"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/metrics"
	"github.com/angelmondragon/procurematch-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type planStore interface {
	Require(ctx context.Context, buyerID uuid.UUID, planID string, lines []plans.CartLine) (plans.Snapshot, error)
	Delete(ctx context.Context, buyerID uuid.UUID, planID string) error
}

// Result is what a checkout produced.
type Result struct {
	PlanID      string                 `json:"plan_id"`
	Orders      []models.PurchaseOrder `json:"orders"`
	Unfulfilled []optimizer.PlanLine   `json:"unfulfilled"`
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, buyerID uuid.UUID, planID string) (*Result, error)
	ListOrders(ctx context.Context, buyerID uuid.UUID, page pagination.Params) (*OrderPage, error)
}

// OrderPage is one page of a buyer's order history.
type OrderPage struct {
	Orders     []models.PurchaseOrder
	NextCursor string
}

type ServiceParams struct {
	Logger  *logger.Logger
	Metrics *metrics.MatchMetrics
	DB      txRunner
	Carts   *cart.Repository
	Orders  *Repository
	Plans   planStore
}

type service struct {
	logg    *logger.Logger
	metrics *metrics.MatchMetrics
	tx      txRunner
	carts   *cart.Repository
	orders  *Repository
	plans   planStore
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Plans == nil:
		return nil, fmt.Errorf("plan manager required")
	}
	return &service{
		logg:    params.Logger,
		metrics: params.Metrics,
		tx:      params.DB,
		carts:   params.Carts,
		orders:  params.Orders,
		plans:   params.Plans,
	}, nil
}

// Execute re-validates the plan against the current cart and, in one
// transaction, writes one purchase order per supplier plan, clears the cart
// and marks it checked out. The snapshot is deleted afterwards.
func (s *service) Execute(ctx context.Context, buyerID uuid.UUID, planID string) (*Result, error) {
	if planID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id required")
	}
	c, err := s.carts.FindByBuyer(ctx, buyerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodePlanNotFound, "plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if c.State == enums.CartStateCheckedOut {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart already checked out")
	}
	if c.PlanID == nil || *c.PlanID != planID {
		return nil, pkgerrors.New(pkgerrors.CodePlanNotFound, "plan is not the cart's current plan")
	}
	intents, err := s.carts.ListIntents(ctx, c.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart intents")
	}

	snap, err := s.plans.Require(ctx, buyerID, planID, cart.HashLines(intents))
	if err != nil {
		s.metrics.IncPlanOp("checkout", string(pkgerrors.As(err).Code()))
		return nil, err
	}
	if !snap.Result.Success {
		s.metrics.IncPlanOp("checkout", "unplaceable")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "plan has no supplier order meeting its minimum")
	}

	result := &Result{PlanID: planID, Unfulfilled: snap.Result.Unfulfilled}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		carts := s.carts.WithTx(tx)
		for _, sp := range snap.Result.Suppliers {
			order := purchaseOrder(buyerID, planID, sp)
			if err := orders.CreateOrder(ctx, &order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
			}
			result.Orders = append(result.Orders, order)
		}
		if err := carts.DeleteIntents(ctx, c.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if err := carts.UpdateState(ctx, c.ID, enums.CartStateCheckedOut, &planID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart checked out")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncPlanOp("checkout", "error")
		return nil, err
	}

	logCtx := s.logg.WithPlanID(ctx, planID)
	if err := s.plans.Delete(ctx, buyerID, planID); err != nil {
		s.logg.Error(logCtx, "delete plan snapshot after checkout", err)
	}
	s.metrics.IncPlanOp("checkout", "ok")
	s.logg.Info(s.logg.WithField(logCtx, "orders", len(result.Orders)), "checkout completed")
	return result, nil
}

func (s *service) ListOrders(ctx context.Context, buyerID uuid.UUID, page pagination.Params) (*OrderPage, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	orders, next, err := s.orders.ListByBuyer(ctx, buyerID, page.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	out := &OrderPage{Orders: orders}
	if out.Orders == nil {
		out.Orders = []models.PurchaseOrder{}
	}
	if next != nil {
		out.NextCursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func purchaseOrder(buyerID uuid.UUID, planID string, sp optimizer.SupplierPlan) models.PurchaseOrder {
	order := models.PurchaseOrder{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		SupplierID: sp.SupplierID,
		PlanID:     planID,
		Subtotal:   sp.Subtotal,
		MinOrder:   sp.MinimumOrder,
	}
	for _, pl := range sp.Lines {
		flags := make(pq.StringArray, 0, len(pl.Flags))
		for _, f := range pl.Flags {
			flags = append(flags, f.String())
		}
		line := models.PurchaseOrderLine{
			ID:        uuid.New(),
			OrderID:   order.ID,
			IntentID:  pl.IntentID,
			Name:      pl.Name,
			Quantity:  pl.Quantity,
			UnitPrice: pl.UnitPrice,
			LineTotal: pl.LineTotal,
			Flags:     flags,
		}
		if pl.Offer != nil {
			line.OfferID = pl.Offer.ID
		}
		order.Lines = append(order.Lines, line)
	}
	return order
}
