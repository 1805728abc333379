package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
)

type sampleBody struct {
	Name      string   `json:"name" validate:"required,max=8"`
	Mode      string   `json:"mode" validate:"omitempty,oneof=strict similar"`
	Tolerance *float64 `json:"tolerance" validate:"omitempty,gte=0,lte=1"`
}

type quantityBody struct {
	Quantity decimal.Decimal  `json:"quantity" validate:"positive_decimal"`
	Update   *decimal.Decimal `json:"update" validate:"omitempty,positive_decimal"`
}

func decode(t *testing.T, body string) (sampleBody, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest sampleBody
	err := DecodeJSONBody(req, &dest)
	return dest, err
}

func TestDecodeJSONBodyValid(t *testing.T) {
	got, err := decode(t, `{"name":"shrimp","mode":"similar","tolerance":0.1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "shrimp" || got.Mode != "similar" || *got.Tolerance != 0.1 {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	_, err := decode(t, `{"mode":"fuzzy","tolerance":2}`)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	for _, field := range []string{"name", "mode", "tolerance"} {
		if details[field] == "" {
			t.Fatalf("expected message for %s, got %v", field, details)
		}
	}
	if details["tolerance"] != "must be at most 1" {
		t.Fatalf("unexpected tolerance message %q", details["tolerance"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	_, err := decode(t, `{"name":"a","extra":true}`)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyPositiveDecimal(t *testing.T) {
	cases := map[string]bool{
		`{"quantity":"2.5"}`:              true,
		`{"quantity":3}`:                  true,
		`{"quantity":"2","update":"0.1"}`: true,
		`{"quantity":"0"}`:                false,
		`{"quantity":"-1"}`:               false,
		`{}`:                              false,
		`{"quantity":"1","update":"0"}`:   false,
	}
	for body, ok := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dest quantityBody
		err := DecodeJSONBody(req, &dest)
		if ok && err != nil {
			t.Errorf("%s: unexpected error %v", body, err)
		}
		if !ok && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Errorf("%s: expected validation error, got %v", body, err)
		}
	}
}
