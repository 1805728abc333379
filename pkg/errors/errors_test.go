package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodePlanChanged, status: http.StatusConflict, detailsOK: true},
		{code: CodePlanExpired, status: http.StatusGone},
		{code: CodePlanNotFound, status: http.StatusNotFound},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s has no public message", tt.code)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "CONFLICT: ctx: boom" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestIsCodeWalksChain(t *testing.T) {
	err := fmt.Errorf("loading plan: %w", New(CodePlanExpired, "expired"))
	if !IsCode(err, CodePlanExpired) {
		t.Fatalf("expected PLAN_EXPIRED in chain")
	}
	if IsCode(err, CodePlanChanged) {
		t.Fatalf("unexpected PLAN_CHANGED match")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpExtractsDatabaseFields(t *testing.T) {
	base := &pgconn.PgError{Code: "23505", ConstraintName: "idx_carts_buyer", TableName: "carts", Message: "duplicate key"}
	err := Wrap(CodeDependency, fmt.Errorf("create cart: %w", base), "save cart")

	d := Dump(err)
	if d.Code != CodeDependency || d.Driver != "pgx" || d.DBConstraint != "idx_carts_buyer" {
		t.Fatalf("unexpected dump %+v", d)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}
	fields := d.Fields()
	if fields["db_table"] != "carts" {
		t.Fatalf("missing db_table in %v", fields)
	}
	if _, ok := fields["db_column"]; ok {
		t.Fatal("empty database fields must be omitted")
	}

	plain := Dump(stdErrors.New("boom")).Fields()
	if _, ok := plain["db_driver"]; ok {
		t.Fatal("non-database error must not carry db fields")
	}
}
