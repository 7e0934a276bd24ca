package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"contact-book/internal/common"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgPhoneTaken    = "Phone number already in use for this account."
	msgGroupTaken    = "Contact group with this Name already exists."
	msgEmailTaken    = "User with this Email already exists."
	msgClearAndFile  = "Please either submit a file or check the clear checkbox, not both."
)

// notFound converts gorm's miss into the domain error and wraps the rest.
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, common.ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}

// merge appends the field errors of err (if any) to errs and returns any
// error that is not a validation failure.
func merge(errs *common.ValidationErrors, err error) error {
	if err == nil {
		return nil
	}
	var ve common.ValidationErrors
	if errors.As(err, &ve) {
		*errs = append(*errs, ve...)
		return nil
	}
	return err
}
