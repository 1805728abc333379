package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

func TestOfferPPU(t *testing.T) {
	o := Offer{Price: decimal.NewFromInt(180), PackValue: 200, PackUnit: "г"}
	ppu := o.PPU()
	if !ppu.Valid || !ppu.Decimal.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected 900 per kg, got %v", ppu)
	}
	unit, qty, ok := o.BaseQuantity()
	if !ok || unit != enums.PackUnitKilogram || !qty.Equal(decimal.RequireFromString("0.2")) {
		t.Fatalf("unexpected base quantity %s %s %v", unit, qty, ok)
	}
}

func TestOfferPPUUnknownPack(t *testing.T) {
	if (Offer{Price: decimal.NewFromInt(100)}).PPU().Valid {
		t.Fatalf("expected invalid ppu without pack")
	}
	if (Offer{PackValue: 1, PackUnit: "kg"}).PPU().Valid {
		t.Fatalf("expected invalid ppu without price")
	}
}

func TestOfferMalformed(t *testing.T) {
	ok := Offer{ID: uuid.New(), SupplierID: uuid.New(), Name: "x"}
	if ok.Malformed() {
		t.Fatalf("expected well-formed offer")
	}
	for _, o := range []Offer{
		{SupplierID: uuid.New(), Name: "x"},
		{ID: uuid.New(), Name: "x"},
		{ID: uuid.New(), SupplierID: uuid.New()},
	} {
		if !o.Malformed() {
			t.Fatalf("expected malformed offer %+v", o)
		}
	}
}

func TestOfferStepDefaultsToOne(t *testing.T) {
	if !(Offer{}).Step().Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected default step 1")
	}
	o := Offer{QtyStep: decimal.RequireFromString("0.5")}
	if !o.Step().Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected configured step")
	}
}
