package validation

import "strings"

// CreateQuoteRequestRequest mirrors the fields needed for quote request
// creation validation.
type CreateQuoteRequestRequest struct {
	Title    string
	Material string
	Quantity float64
	Unit     string
}

// ValidateCreateQuoteRequest validates the fields of a new quote request.
func ValidateCreateQuoteRequest(req CreateQuoteRequestRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(req.Material) == "" {
		errs = append(errs, FieldError{Field: "material", Message: "material is required"})
	}
	if req.Quantity <= 0 {
		errs = append(errs, FieldError{Field: "quantity", Message: "quantity must be greater than zero"})
	}
	if strings.TrimSpace(req.Unit) == "" {
		errs = append(errs, FieldError{Field: "unit", Message: "unit is required"})
	}

	return errs
}

// SubmitQuoteRequest mirrors the fields needed for quote submission
// validation.
type SubmitQuoteRequest struct {
	UnitPrice    float64
	Currency     string
	LeadTimeDays int
}

// ValidateSubmitQuote validates the fields of a submitted quote.
func ValidateSubmitQuote(req SubmitQuoteRequest) []FieldError {
	var errs []FieldError

	if req.UnitPrice <= 0 {
		errs = append(errs, FieldError{Field: "unitPrice", Message: "unitPrice must be greater than zero"})
	}
	if strings.TrimSpace(req.Currency) == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "currency is required"})
	} else if len(req.Currency) != 3 {
		errs = append(errs, FieldError{Field: "currency", Message: "currency must be a 3-letter code"})
	}
	if req.LeadTimeDays < 0 {
		errs = append(errs, FieldError{Field: "leadTimeDays", Message: "leadTimeDays must not be negative"})
	}

	return errs
}
