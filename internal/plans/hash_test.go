package plans

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestHashCartIgnoresOrder(t *testing.T) {
	a := CartLine{Key: "a", Quantity: decimal.NewFromInt(2)}
	b := CartLine{Key: "b", Quantity: decimal.NewFromInt(3), Locked: true}
	if HashCart([]CartLine{a, b}) != HashCart([]CartLine{b, a}) {
		t.Fatal("expected hash to be order independent")
	}
}

func TestHashCartNormalisesQuantityScale(t *testing.T) {
	a := HashCart([]CartLine{{Key: "a", Quantity: decimal.RequireFromString("10")}})
	b := HashCart([]CartLine{{Key: "a", Quantity: decimal.RequireFromString("10.000")}})
	if a != b {
		t.Fatalf("expected equal hashes, got %s and %s", a, b)
	}
}

func TestHashCartChangesOnAnySingleEdit(t *testing.T) {
	base := []CartLine{
		{Key: "a", Quantity: decimal.NewFromInt(2)},
		{Key: "b", Quantity: decimal.NewFromInt(3)},
	}
	want := HashCart(base)

	edits := map[string][]CartLine{
		"quantity": {{Key: "a", Quantity: decimal.NewFromInt(2)}, {Key: "b", Quantity: decimal.NewFromInt(4)}},
		"locked":   {{Key: "a", Quantity: decimal.NewFromInt(2), Locked: true}, {Key: "b", Quantity: decimal.NewFromInt(3)}},
		"key":      {{Key: "a", Quantity: decimal.NewFromInt(2)}, {Key: "c", Quantity: decimal.NewFromInt(3)}},
		"removed":  {{Key: "a", Quantity: decimal.NewFromInt(2)}},
	}
	for name, lines := range edits {
		if HashCart(lines) == want {
			t.Fatalf("%s edit did not change the hash", name)
		}
	}
}

func TestLineKey(t *testing.T) {
	ref := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	offer := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	if got := LineKey(nil, ref); got != "ref:"+ref.String() {
		t.Fatalf("unexpected key %s", got)
	}
	if got := LineKey(&offer, ref); got != offer.String() {
		t.Fatalf("unexpected key %s", got)
	}
	nilID := uuid.Nil
	if got := LineKey(&nilID, ref); got != "ref:"+ref.String() {
		t.Fatalf("nil pin should fall back to the reference, got %s", got)
	}
}
