package classifier

// DefaultCurated seeds categories that must classify even on a sparse catalog.
// Keys are stemmed keywords as produced by signature.Tokens.
func DefaultCurated() map[string]string {
	return map[string]string{
		"креветк":   "seafood.shrimp",
		"лангустин": "seafood.shrimp",
		"shrimp":    "seafood.shrimp",
		"prawn":     "seafood.shrimp",
		"лосос":     "seafood.fish",
		"семг":      "seafood.fish",
		"форел":     "seafood.fish",
		"треск":     "seafood.fish",
		"минта":     "seafood.fish",
		"сыр":       "dairy.cheese",
		"моцарелл":  "dairy.cheese",
		"пармезан":  "dairy.cheese",
		"молок":     "dairy.milk",
		"сливк":     "dairy.cream",
		"сметан":    "dairy.sour_cream",
		"говядин":   "meat.beef",
		"свинин":    "meat.pork",
		"баранин":   "meat.lamb",
		"куриц":     "poultry.chicken",
		"курин":     "poultry.chicken",
		"индейк":    "poultry.turkey",
		"пельмен":   "prepared.dumplings",
		"сырник":    "prepared.syrniki",
	}
}
