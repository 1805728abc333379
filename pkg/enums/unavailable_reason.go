package enums

import "fmt"

// Reason explains why a reference has no match or why a cart line was left unplanned.
type Reason string

const (
	ReasonInsufficientData      Reason = "INSUFFICIENT_DATA"
	ReasonNotFound              Reason = "NOT_FOUND"
	ReasonBrandRequiredNotFound Reason = "BRAND_REQUIRED_NOT_FOUND"
	ReasonStrictAttrMismatch    Reason = "STRICT_ATTR_MISMATCH"
	ReasonPackToleranceFailed   Reason = "PACK_TOLERANCE_FAILED"
	ReasonClassificationMissing Reason = "CLASSIFICATION_MISSING"
	ReasonOfferInactive         Reason = "OFFER_INACTIVE"
	ReasonPriceInvalid          Reason = "PRICE_INVALID"
	ReasonNoSupplierOffers      Reason = "NO_SUPPLIER_OFFERS"
	ReasonMinQtyNotMet          Reason = "MIN_QTY_NOT_MET"
	ReasonInternalError         Reason = "INTERNAL_ERROR"
)

var reasonExplanations = map[Reason]string{
	ReasonInsufficientData:      "the product description could not be classified with enough confidence",
	ReasonNotFound:              "no offer passed the product checks",
	ReasonBrandRequiredNotFound: "the required brand is not offered by any supplier",
	ReasonStrictAttrMismatch:    "available offers differ in a required attribute (cut, state, caliber or unit)",
	ReasonPackToleranceFailed:   "available offers differ too much in pack size",
	ReasonClassificationMissing: "the product has no category assigned",
	ReasonOfferInactive:         "the selected offer is no longer active",
	ReasonPriceInvalid:          "the selected offer has no valid price",
	ReasonNoSupplierOffers:      "no supplier currently offers this product",
	ReasonMinQtyNotMet:          "the supplier's minimum order amount could not be reached",
	ReasonInternalError:         "an offer record is malformed and was skipped",
}

// String implements fmt.Stringer.
func (r Reason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Reason.
func (r Reason) IsValid() bool {
	_, ok := reasonExplanations[r]
	return ok
}

// Explain returns the human-readable explanation attached to the code.
func (r Reason) Explain() string {
	if msg, ok := reasonExplanations[r]; ok {
		return msg
	}
	return "unknown reason"
}

// ParseReason converts raw input into a Reason.
func ParseReason(value string) (Reason, error) {
	r := Reason(value)
	if r.IsValid() {
		return r, nil
	}
	return "", fmt.Errorf("invalid reason %q", value)
}
