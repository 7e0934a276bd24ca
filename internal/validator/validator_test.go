package validator

import (
	"errors"
	"testing"

	"contact-book/internal/common"
)

func TestPhoneMatches(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9123456780", true},
		{"6000000000", true},
		{"7999999999", true},
		{"8123456789", true},
		{"1234567890", false},
		{"5123456789", false},
		{"98765432", false},
		{"987654321", false},
		{"98765432101", false},
		{"91234 6780", false},
		{"+919123456780", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := PhoneMatches(tt.phone); got != tt.want {
			t.Errorf("PhoneMatches(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

type sample struct {
	Name  string `form:"name" validate:"notblank,max=255"`
	Phone string `form:"phone_number" validate:"required,indian_phone"`
	Email string `form:"email" validate:"omitempty,email"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	if err := v.Struct(sample{Name: "Jo", Phone: "9123456780"}); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	err := v.Struct(sample{Name: "  ", Phone: "1234567890", Email: "nope"})
	var ve common.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("error %v is not ValidationErrors", err)
	}
	if !errors.Is(err, common.ErrValidation) {
		t.Error("ValidationErrors does not match ErrValidation")
	}
	for _, field := range []string{"name", "phone_number", "email"} {
		if !ve.Has(field) {
			t.Errorf("missing error for %s in %v", field, ve)
		}
	}
}
