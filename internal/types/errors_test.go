package types_test

import (
	"fmt"
	"testing"

	"github.com/Cardboom/cardboomtest-sub000/internal/types"
)

func TestValidationf(t *testing.T) {
	err := types.Validationf("quantity %d is below the minimum of %d", 2, 5)
	want := "validation failed: quantity 2 is below the minimum of 5"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestIsValidation(t *testing.T) {
	if !types.IsValidation(types.Validationf("bad input")) {
		t.Error("ValidationError not recognized")
	}
	if !types.IsValidation(fmt.Errorf("wrapped: %w", types.Validationf("bad input"))) {
		t.Error("wrapped ValidationError not recognized")
	}
	if types.IsValidation(types.ErrNotFound) {
		t.Error("sentinel misclassified as validation error")
	}
	if types.IsValidation(nil) {
		t.Error("nil misclassified as validation error")
	}
}
