package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/pkg/db/dbtest"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
)

type gormTx struct{ db *gorm.DB }

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type stubRefs struct{ known map[uuid.UUID]bool }

func (s stubRefs) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (*models.Reference, error) {
	if !s.known[id] {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reference not found")
	}
	return &models.Reference{ID: id}, nil
}

type stubOffers struct{ known map[uuid.UUID]bool }

func (s stubOffers) ListByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Offer, error) {
	var out []catalog.Offer
	for _, id := range ids {
		if s.known[id] {
			out = append(out, catalog.Offer{ID: id})
		}
	}
	return out, nil
}

type fixture struct {
	svc   Service
	repo  *Repository
	ref   uuid.UUID
	offer uuid.UUID
	buyer uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ref, offer := uuid.New(), uuid.New()
	svc, err := NewService(repo, gormTx{db: conn},
		stubRefs{known: map[uuid.UUID]bool{ref: true}},
		stubOffers{known: map[uuid.UUID]bool{offer: true}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fixture{svc: svc, repo: repo, ref: ref, offer: offer, buyer: uuid.New()}
}

func TestAddIntentCreatesDraftCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	intent, err := f.svc.AddIntent(ctx, f.buyer, IntentInput{ReferenceID: f.ref, Quantity: decimal.NewFromInt(3)})
	if err != nil {
		t.Fatalf("add intent: %v", err)
	}
	view, err := f.svc.Get(ctx, f.buyer)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if view.Cart.State != enums.CartStateDraft {
		t.Fatalf("expected draft cart, got %s", view.Cart.State)
	}
	if len(view.Intents) != 1 || view.Intents[0].ID != intent.ID {
		t.Fatalf("unexpected intents %+v", view.Intents)
	}
	if !view.Intents[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected quantity %s", view.Intents[0].Quantity)
	}
}

func TestAddIntentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]struct {
		input IntentInput
		code  pkgerrors.Code
	}{
		"zero quantity":     {IntentInput{ReferenceID: f.ref}, pkgerrors.CodeValidation},
		"unknown reference": {IntentInput{ReferenceID: uuid.New(), Quantity: decimal.NewFromInt(1)}, pkgerrors.CodeNotFound},
		"lock without pin":  {IntentInput{ReferenceID: f.ref, Quantity: decimal.NewFromInt(1), Locked: true}, pkgerrors.CodeValidation},
		"unknown pin":       {IntentInput{ReferenceID: f.ref, Quantity: decimal.NewFromInt(1), PinnedOfferID: ptr(uuid.New())}, pkgerrors.CodeValidation},
	}
	for name, tc := range cases {
		if _, err := f.svc.AddIntent(ctx, f.buyer, tc.input); !pkgerrors.IsCode(err, tc.code) {
			t.Fatalf("%s: expected %s, got %v", name, tc.code, err)
		}
	}
}

func TestEditingPlannedCartMarksPlanChanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	intent, err := f.svc.AddIntent(ctx, f.buyer, IntentInput{ReferenceID: f.ref, Quantity: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("add intent: %v", err)
	}
	if err := f.svc.MarkPlanned(ctx, f.buyer, "plan-1"); err != nil {
		t.Fatalf("mark planned: %v", err)
	}

	qty := decimal.NewFromInt(5)
	updated, err := f.svc.UpdateIntent(ctx, f.buyer, intent.ID, IntentUpdate{Quantity: &qty, PinnedOfferID: &f.offer, Locked: ptr(true)})
	if err != nil {
		t.Fatalf("update intent: %v", err)
	}
	if !updated.Locked || updated.PinnedOfferID == nil || *updated.PinnedOfferID != f.offer {
		t.Fatalf("expected locked pin, got %+v", updated)
	}

	c, err := f.repo.FindByBuyer(ctx, f.buyer)
	if err != nil {
		t.Fatalf("find cart: %v", err)
	}
	if c.State != enums.CartStatePlanChanged {
		t.Fatalf("expected plan_changed, got %s", c.State)
	}
	if c.PlanID == nil || *c.PlanID != "plan-1" {
		t.Fatalf("expected plan id to be kept, got %v", c.PlanID)
	}

	if err := f.svc.MarkPlanned(ctx, f.buyer, "plan-2"); err != nil {
		t.Fatalf("replanning a changed cart must be allowed: %v", err)
	}
}

func TestEditingCheckedOutCartStartsNewDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.repo.GetOrCreate(ctx, f.buyer)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	planID := "plan-1"
	if err := f.repo.UpdateState(ctx, c.ID, enums.CartStateCheckedOut, &planID); err != nil {
		t.Fatalf("update state: %v", err)
	}
	if _, err := f.svc.AddIntent(ctx, f.buyer, IntentInput{ReferenceID: f.ref, Quantity: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("add intent: %v", err)
	}
	c, err = f.repo.FindByBuyer(ctx, f.buyer)
	if err != nil {
		t.Fatalf("find cart: %v", err)
	}
	if c.State != enums.CartStateDraft || c.PlanID != nil {
		t.Fatalf("expected fresh draft, got %s plan=%v", c.State, c.PlanID)
	}
}

func TestRemoveIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	intent, err := f.svc.AddIntent(ctx, f.buyer, IntentInput{ReferenceID: f.ref, Quantity: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("add intent: %v", err)
	}
	if err := f.svc.RemoveIntent(ctx, f.buyer, intent.ID); err != nil {
		t.Fatalf("remove intent: %v", err)
	}
	if err := f.svc.RemoveIntent(ctx, f.buyer, intent.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
	if err := f.svc.RemoveIntent(ctx, uuid.New(), intent.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("another buyer must not see the intent, got %v", err)
	}
}

func TestClearPinDropsLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	intent, err := f.svc.AddIntent(ctx, f.buyer, IntentInput{ReferenceID: f.ref, Quantity: decimal.NewFromInt(1), PinnedOfferID: &f.offer, Locked: true})
	if err != nil {
		t.Fatalf("add intent: %v", err)
	}
	updated, err := f.svc.UpdateIntent(ctx, f.buyer, intent.ID, IntentUpdate{ClearPin: true})
	if err != nil {
		t.Fatalf("update intent: %v", err)
	}
	if updated.PinnedOfferID != nil || updated.Locked {
		t.Fatalf("expected pin and lock cleared, got %+v", updated)
	}
}

func TestHashLinesUsesPinOrReference(t *testing.T) {
	ref, offer := uuid.New(), uuid.New()
	lines := HashLines([]models.CartIntent{
		{ReferenceID: ref, Quantity: decimal.NewFromInt(1)},
		{ReferenceID: ref, Quantity: decimal.NewFromInt(2), PinnedOfferID: &offer, Locked: true},
	})
	if lines[0].Key != "ref:"+ref.String() || lines[1].Key != offer.String() || !lines[1].Locked {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestAfterEdit(t *testing.T) {
	cases := map[enums.CartState]enums.CartState{
		enums.CartStateDraft:       enums.CartStateDraft,
		enums.CartStatePlanned:     enums.CartStatePlanChanged,
		enums.CartStatePlanChanged: enums.CartStatePlanChanged,
		enums.CartStateCheckedOut:  enums.CartStateDraft,
	}
	for in, want := range cases {
		if got := AfterEdit(in); got != want {
			t.Fatalf("AfterEdit(%s) = %s, want %s", in, got, want)
		}
	}
}

func ptr[T any](v T) *T { return &v }
