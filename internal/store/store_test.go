package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"no rows", fmt.Errorf("getting project: %w", pgx.ErrNoRows), apperr.KindNotFound},
		{"insufficient privilege", &pgconn.PgError{Code: "42501"}, apperr.KindForbidden},
		{"invalid text", &pgconn.PgError{Code: "22P02"}, apperr.KindValidation},
		{"not null", &pgconn.PgError{Code: "23502"}, apperr.KindValidation},
		{"foreign key", fmt.Errorf("creating task: %w", &pgconn.PgError{Code: "23503"}), apperr.KindValidation},
		{"unique", &pgconn.PgError{Code: "23505"}, apperr.KindValidation},
		{"check", &pgconn.PgError{Code: "23514"}, apperr.KindValidation},
		{"other sqlstate", &pgconn.PgError{Code: "53300"}, apperr.KindUnexpected},
		{"plain error", errors.New("connection refused"), apperr.KindUnexpected},
		{"already classified", apperr.Forbidden("nope"), apperr.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apperr.As(MapError(tt.err))
			if got.Kind != tt.want {
				t.Errorf("MapError() kind = %v, want %v", got.Kind, tt.want)
			}
			if got.Message == "" {
				t.Error("expected a user-facing message")
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if MapError(nil) != nil {
		t.Error("MapError(nil) should be nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("expected unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key is not a unique violation")
	}
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	var body struct {
		Daily   Optional[float64] `json:"daily"`
		Weekly  Optional[float64] `json:"weekly"`
		Monthly Optional[float64] `json:"monthly"`
	}
	if err := json.Unmarshal([]byte(`{"daily": 2.5, "weekly": null}`), &body); err != nil {
		t.Fatal(err)
	}

	if !body.Daily.Present || !body.Daily.Valid || body.Daily.V != 2.5 {
		t.Errorf("daily = %+v", body.Daily)
	}
	if !body.Weekly.Present || body.Weekly.Valid {
		t.Errorf("weekly should be present and null, got %+v", body.Weekly)
	}
	if body.Monthly.Present {
		t.Errorf("monthly should be absent, got %+v", body.Monthly)
	}
	if body.Weekly.Ptr() != nil {
		t.Error("null Ptr() should be nil")
	}
	if p := body.Daily.Ptr(); p == nil || *p != 2.5 {
		t.Errorf("Ptr() = %v", p)
	}
}

func TestOptional_UnmarshalJSONTypeMismatch(t *testing.T) {
	var o Optional[float64]
	if err := json.Unmarshal([]byte(`"ten"`), &o); err == nil {
		t.Error("expected error for string into float field")
	}
}

func TestAssignments(t *testing.T) {
	var a Assignments
	if !a.Empty() {
		t.Fatal("new Assignments should be empty")
	}
	a.Set("name", "Invoices")
	a.SetRaw("updated_at", "now()")
	a.Set("status", "active")

	if got := a.Clause(); got != "name = $1, updated_at = now(), status = $2" {
		t.Errorf("Clause() = %q", got)
	}
	idx, args := a.Where("project-1")
	if idx != 3 {
		t.Errorf("Where() index = %d, want 3", idx)
	}
	if len(args) != 3 || args[2] != "project-1" {
		t.Errorf("Where() args = %v", args)
	}
}
