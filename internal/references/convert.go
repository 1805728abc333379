package references

import (
	"encoding/json"

	"github.com/angelmondragon/procurematch-backend/internal/matching"
	"github.com/angelmondragon/procurematch-backend/internal/signature"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
)

// ToMatching converts a stored reference into matcher input. A cached
// signature that fails to decode is ignored and re-extracted by the matcher.
func ToMatching(row models.Reference) matching.Reference {
	ref := matching.Reference{
		ID:            row.ID,
		RawName:       row.RawName,
		BrandCritical: row.BrandCritical,
		PackTolerance: row.PackTolerance,
	}
	if row.Category != nil {
		ref.Category = *row.Category
	}
	if row.TargetBrand != nil {
		ref.TargetBrand = *row.TargetBrand
	}
	if row.TargetPackValue != nil {
		ref.TargetPackValue = *row.TargetPackValue
	}
	if row.TargetPackUnit != nil {
		ref.TargetPackUnit = *row.TargetPackUnit
	}
	if len(row.SignatureJSON) > 0 {
		var sig signature.Signature
		if err := json.Unmarshal(row.SignatureJSON, &sig); err == nil {
			ref.Stored = &sig
		}
	}
	return ref
}
