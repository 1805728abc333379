package signature

// Ordered longest first so the longest ending is stripped.
var russianSuffixes = []string{
	"иями", "ями", "ами", "ого", "его", "ому", "ему", "ыми", "ими",
	"ий", "ый", "ой", "ая", "яя", "ое", "ее", "ые", "ие", "ую", "юю",
	"ом", "ем", "ам", "ям", "ах", "ях", "ов", "ев", "ей",
	"а", "я", "ы", "и", "о", "е", "у", "ю", "ь", "й",
}

var stopWords = map[string]struct{}{
	"для": {}, "без": {}, "или": {}, "при": {}, "под": {}, "над": {}, "что": {},
	"упак": {}, "упаковк": {}, "пакет": {}, "коробк": {}, "ящик": {}, "весов": {},
	"the": {}, "and": {}, "with": {}, "for": {}, "pack": {}, "pcs": {},
}

// rule matches a word by prefix, by exact value, or a multi-word phrase.
type rule struct {
	value    string
	prefixes []string
	exact    []string
	phrases  []string
}

func (r rule) match(words []string, padded string) bool {
	for _, w := range words {
		for _, p := range r.prefixes {
			if len(w) >= len(p) && w[:len(p)] == p {
				return true
			}
		}
		for _, e := range r.exact {
			if w == e {
				return true
			}
		}
	}
	for _, phrase := range r.phrases {
		if containsPhrase(padded, phrase) {
			return true
		}
	}
	return false
}

func firstMatch(rules []rule, words []string, padded string) string {
	for _, r := range rules {
		if r.match(words, padded) {
			return r.value
		}
	}
	return ""
}

var cutRules = []rule{
	{value: CutGround, prefixes: []string{"фарш", "ground", "mince"}},
	{value: CutSteak, prefixes: []string{"стейк", "steak"}},
	{value: CutFillet, prefixes: []string{"филе", "филей", "fillet", "filet"}},
	{value: CutTail, prefixes: []string{"хвост", "tail"}},
	{value: CutWhole, prefixes: []string{"тушк", "целая", "целый", "целик", "whole"}},
}

var breadedRule = rule{value: "breaded", prefixes: []string{"панир", "кляр", "breaded", "batter"}}

var skinRules = []rule{
	{value: SkinOff, phrases: []string{"без кожи", "без шкуры", "без кожицы"}, prefixes: []string{"skinless"}},
	{value: SkinOn, phrases: []string{"на коже", "с кожей", "на шкуре", "skin on"}},
}

var stateRules = []rule{
	{value: StateFrozen, prefixes: []string{"заморож", "мороже", "свежемор", "глазир", "frozen"}, exact: []string{"зам", "зам.", "с/м", "в/м"}},
	{value: StateChilled, prefixes: []string{"охлажд", "chilled"}, exact: []string{"охл", "охл."}},
}

var smokedRule = rule{value: "smoked", prefixes: []string{"копч", "smoked"}, exact: []string{"х/к", "г/к"}}

var marinatedRule = rule{value: "marinated", prefixes: []string{"марин", "marinated"}}

var peeledRules = []rule{
	{value: PeeledNo, prefixes: []string{"неочищ", "unpeeled"}, phrases: []string{"в панцире"}},
	{value: PeeledYes, prefixes: []string{"очищ", "peeled"}},
}

var cookedRules = []rule{
	{value: CookedYes, prefixes: []string{"варен", "cooked"}, exact: []string{"в/м"}},
	{value: CookedNo, prefixes: []string{"сыромор", "сырые", "сырой", "raw"}, exact: []string{"с/м"}},
}

// Prepared-food classes a raw-ingredient search must never return.
const (
	ClassDumplings = "dumplings"
	ClassSoup      = "soup"
	ClassSalad     = "salad"
	ClassKit       = "kit"
	ClassCutlets   = "cutlets"
	ClassNuggets   = "nuggets"
	ClassSyrniki   = "syrniki"
	ClassPancakes  = "pancakes"
	ClassPizza     = "pizza"
	ClassSurimi    = "surimi"
)

var classRules = []rule{
	{value: ClassDumplings, prefixes: []string{"пельмен", "вареник", "мант", "хинкал", "dumpling"}},
	{value: ClassSoup, prefixes: []string{"борщ", "солянк", "soup"}, exact: []string{"суп", "супа", "супы"}},
	{value: ClassSalad, prefixes: []string{"салат", "salad"}},
	{value: ClassKit, prefixes: []string{"набор"}, exact: []string{"сет", "kit"}},
	{value: ClassCutlets, prefixes: []string{"котлет", "cutlet"}},
	{value: ClassNuggets, prefixes: []string{"наггетс", "нагетс", "nugget"}},
	{value: ClassSyrniki, prefixes: []string{"сырник"}},
	{value: ClassPancakes, prefixes: []string{"блин", "pancake"}},
	{value: ClassPizza, prefixes: []string{"пицц", "pizza"}},
	{value: ClassSurimi, prefixes: []string{"сурими", "палочк"}},
}

// flagSetters map structured offer flags onto signature fields.
var flagSetters = map[string]func(*Signature){
	"frozen":    func(s *Signature) { s.State = StateFrozen },
	"chilled":   func(s *Signature) { s.State = StateChilled },
	"breaded":   func(s *Signature) { s.Breaded = true },
	"skin_on":   func(s *Signature) { s.Skin = SkinOn },
	"skinless":  func(s *Signature) { s.Skin = SkinOff },
	"smoked":    func(s *Signature) { s.Smoked = true },
	"marinated": func(s *Signature) { s.Marinated = true },
	"peeled":    func(s *Signature) { s.Peeled = PeeledYes },
	"unpeeled":  func(s *Signature) { s.Peeled = PeeledNo },
	"cooked":    func(s *Signature) { s.Cooked = CookedYes },
	"raw":       func(s *Signature) { s.Cooked = CookedNo },
	"fillet":    func(s *Signature) { s.Cut = CutFillet },
	"whole":     func(s *Signature) { s.Cut = CutWhole },
	"steak":     func(s *Signature) { s.Cut = CutSteak },
	"ground":    func(s *Signature) { s.Cut = CutGround },
	"tail":      func(s *Signature) { s.Cut = CutTail },
}
