package validation

import (
	"net/mail"
	"strings"
)

// SupplierRequest mirrors the fields needed for supplier create/update
// validation.
type SupplierRequest struct {
	Email         string
	SupplierName  string
	ContactPerson string
}

// ValidateSupplierRequest validates the fields of a supplier payload.
func ValidateSupplierRequest(req SupplierRequest) []FieldError {
	var errs []FieldError

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	name := strings.TrimSpace(req.SupplierName)
	if name == "" {
		errs = append(errs, FieldError{Field: "supplierName", Message: "supplierName is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "supplierName", Message: "supplierName must be at most 255 characters"})
	}

	if len(req.ContactPerson) > 255 {
		errs = append(errs, FieldError{Field: "contactPerson", Message: "contactPerson must be at most 255 characters"})
	}

	return errs
}
