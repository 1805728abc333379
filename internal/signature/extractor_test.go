package signature

import (
	"math"
	"testing"

	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

func testExtractor() *Extractor {
	return NewExtractor(Dictionary{
		Version: 7,
		Brands: map[string]string{
			"агама":        "Агама",
			"agama":        "Агама",
			"агама роял":   "Агама Роял",
			"galbani":      "Galbani",
			"гальбани":     "Galbani",
			"русское море": "Русское море",
		},
	})
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtractShrimpAttributes(t *testing.T) {
	sig := testExtractor().Extract("Креветка тигровая 16/20 с/м б/г 1 кг Агама")

	if sig.Caliber != "16/20" {
		t.Fatalf("expected caliber 16/20, got %q", sig.Caliber)
	}
	if sig.PackUnit != enums.PackUnitKilogram || !approx(sig.PackValue, 1) {
		t.Fatalf("expected 1 kg pack, got %v %s", sig.PackValue, sig.PackUnit)
	}
	if sig.State != StateFrozen {
		t.Fatalf("expected frozen, got %q", sig.State)
	}
	if sig.Cooked != CookedNo {
		t.Fatalf("expected raw, got %q", sig.Cooked)
	}
	if sig.Brand != "Агама" {
		t.Fatalf("expected brand Агама, got %q", sig.Brand)
	}
	if sig.Version != "sig-3/d7" {
		t.Fatalf("unexpected version %q", sig.Version)
	}
}

func TestCaliberIsLiteral(t *testing.T) {
	e := testExtractor()
	cases := map[string]string{
		"креветка 31/40 вареная":   "31/40",
		"креветка 16/20":           "16/20",
		"креветка 20/16":           "",
		"креветка без калибра 1кг": "",
		"креветка 16-20 с/м":       "16/20",
		"креветка 26 – 30":         "26/30",
		"лангустины 1/2 кг":        "",
		"говядина фарш 1/2 кг":     "",
	}
	for in, want := range cases {
		if got := e.Extract(in).Caliber; got != want {
			t.Fatalf("%q: expected caliber %q got %q", in, want, got)
		}
	}
}

func TestPackNormalization(t *testing.T) {
	e := testExtractor()
	cases := []struct {
		in    string
		value float64
		unit  enums.PackUnit
		count int
	}{
		{"Сыр моцарелла 125 г", 0.125, enums.PackUnitKilogram, 0},
		{"Сыр моцарелла 125гр", 0.125, enums.PackUnitKilogram, 0},
		{"Молоко 3,2% 1,5 л", 1.5, enums.PackUnitLiter, 0},
		{"Сливки 33% 500 мл", 0.5, enums.PackUnitLiter, 0},
		{"Яйцо С0 10 шт", 10, enums.PackUnitPiece, 0},
		{"Йогурт 8x125г", 0.125, enums.PackUnitKilogram, 8},
		{"Shrimp 500 g", 0.5, enums.PackUnitKilogram, 0},
		{"Говядина фарш 1/2 кг", 0.5, enums.PackUnitKilogram, 0},
		{"Масло 1/4 кг", 0.25, enums.PackUnitKilogram, 0},
	}
	for _, tc := range cases {
		sig := e.Extract(tc.in)
		if !approx(sig.PackValue, tc.value) || sig.PackUnit != tc.unit || sig.PackCount != tc.count {
			t.Fatalf("%q: expected %v %s x%d, got %v %s x%d", tc.in, tc.value, tc.unit, tc.count, sig.PackValue, sig.PackUnit, sig.PackCount)
		}
	}
}

func TestFatPercent(t *testing.T) {
	sig := testExtractor().Extract("Молоко 3,2% 1 л")
	if sig.FatPct == nil || !approx(*sig.FatPct, 3.2) {
		t.Fatalf("expected fat 3.2, got %v", sig.FatPct)
	}
	if sig := testExtractor().Extract("Молоко 1 л"); sig.FatPct != nil {
		t.Fatalf("expected no fat, got %v", *sig.FatPct)
	}
}

func TestBrandLongestMatchWins(t *testing.T) {
	sig := testExtractor().Extract("Креветка агама роял 16/20")
	if sig.Brand != "Агама Роял" {
		t.Fatalf("expected longest alias to win, got %q", sig.Brand)
	}
	if got := testExtractor().Extract("Mozzarella GALBANI 125g").Brand; got != "Galbani" {
		t.Fatalf("expected Galbani, got %q", got)
	}
}

func TestCutAndProcessingFlags(t *testing.T) {
	e := testExtractor()
	cases := []struct {
		in     string
		check  func(Signature) bool
		reason string
	}{
		{"Филе лосося на коже охл", func(s Signature) bool { return s.Cut == CutFillet && s.Skin == SkinOn && s.State == StateChilled }, "fillet skin-on chilled"},
		{"Филе трески без кожи зам.", func(s Signature) bool { return s.Skin == SkinOff && s.State == StateFrozen }, "skinless frozen"},
		{"Фарш говяжий", func(s Signature) bool { return s.Cut == CutGround }, "ground"},
		{"Стейк семги", func(s Signature) bool { return s.Cut == CutSteak }, "steak"},
		{"Минтай тушка б/г", func(s Signature) bool { return s.Cut == CutWhole }, "whole"},
		{"Креветка в панировке", func(s Signature) bool { return s.Breaded }, "breaded"},
		{"Скумбрия х/к", func(s Signature) bool { return s.Smoked }, "smoked"},
		{"Сельдь маринованная", func(s Signature) bool { return s.Marinated }, "marinated"},
		{"Креветка очищенная варено-мороженая", func(s Signature) bool { return s.Peeled == PeeledYes && s.Cooked == CookedYes && s.State == StateFrozen }, "peeled cooked frozen"},
		{"Креветка неочищенная", func(s Signature) bool { return s.Peeled == PeeledNo }, "unpeeled"},
	}
	for _, tc := range cases {
		if sig := e.Extract(tc.in); !tc.check(sig) {
			t.Fatalf("%q: expected %s, got %+v", tc.in, tc.reason, sig)
		}
	}
}

func TestProductClass(t *testing.T) {
	e := testExtractor()
	cases := map[string]string{
		"Сырники замороженные 500 г": ClassSyrniki,
		"Пельмени с креветкой":       ClassDumplings,
		"Суп том ям с креветками":    ClassSoup,
		"Салат с креветками":         ClassSalad,
		"Котлеты рыбные":             ClassCutlets,
		"Крабовые палочки":           ClassSurimi,
		"Сыр моцарелла 125 г":        "",
		"Креветка королевская 16/20": "",
	}
	for in, want := range cases {
		if got := e.Extract(in).Class; got != want {
			t.Fatalf("%q: expected class %q got %q", in, want, got)
		}
	}
}

func TestTokensStemAndDropNoise(t *testing.T) {
	sig := testExtractor().Extract("Креветки тигровые 16/20 для гриля 1 кг")
	want := []string{"грил", "креветк", "тигров"}
	if len(sig.Tokens) != len(want) {
		t.Fatalf("expected tokens %v, got %v", want, sig.Tokens)
	}
	for i := range want {
		if sig.Tokens[i] != want[i] {
			t.Fatalf("expected tokens %v, got %v", want, sig.Tokens)
		}
	}
	if got := Tokens("сыр сыр моцарелла"); len(got) != 3 {
		t.Fatalf("Tokens must keep duplicates, got %v", got)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	e := testExtractor()
	a := e.Extract("Филе лосося на коже 1,5 кг Русское море")
	b := e.Extract("Филе лосося на коже 1,5 кг Русское море")
	if a.Normalized != b.Normalized || a.Brand != b.Brand || a.PackValue != b.PackValue || len(a.Tokens) != len(b.Tokens) {
		t.Fatalf("extraction is not deterministic: %+v vs %+v", a, b)
	}
	if a.Brand != "Русское море" {
		t.Fatalf("expected multi-word brand, got %q", a.Brand)
	}
}

func TestExtractOfferStructuredFieldsOverride(t *testing.T) {
	fat := 45.0
	sig := testExtractor().ExtractOffer(Fields{
		Name:      "Моцарелла мини",
		Category:  "dairy.cheese",
		Brand:     "гальбани",
		PackValue: 250,
		PackUnit:  "г",
		FatPct:    &fat,
		Flags:     []string{"chilled", "unknown_flag"},
	})
	if sig.Category != "dairy.cheese" || sig.Brand != "Galbani" {
		t.Fatalf("unexpected category/brand %q/%q", sig.Category, sig.Brand)
	}
	if !approx(sig.PackValue, 0.25) || sig.PackUnit != enums.PackUnitKilogram {
		t.Fatalf("expected 0.25 kg, got %v %s", sig.PackValue, sig.PackUnit)
	}
	if sig.State != StateChilled || sig.FatPct == nil || *sig.FatPct != 45 {
		t.Fatalf("structured flags not applied: %+v", sig)
	}
}

func TestComparableRequiresSameVersion(t *testing.T) {
	a := NewExtractor(Dictionary{Version: 1}).Extract("молоко")
	b := NewExtractor(Dictionary{Version: 2}).Extract("молоко")
	if Comparable(a, b) {
		t.Fatal("signatures from different dictionary versions must not compare")
	}
	if !Comparable(a, a) {
		t.Fatal("same-version signatures should compare")
	}
	if Comparable(Signature{}, Signature{}) {
		t.Fatal("unversioned signatures never compare")
	}
}

func TestNormalizeFoldsLookalikes(t *testing.T) {
	// Latin "o" and "e" inside a Cyrillic word.
	if got := Normalize("Мoлoкo Свeжee, 1,5Л"); got != "молоко свежее 1.5л" {
		t.Fatalf("unexpected normalization %q", got)
	}
	if got := Normalize("XL size"); got != "xl size" {
		t.Fatalf("latin-only words must stay latin, got %q", got)
	}
}
