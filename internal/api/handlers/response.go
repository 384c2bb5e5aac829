package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Envelope is the response shape shared by the user, settings and AI routes.
type Envelope struct {
	Body    any    `json:"body,omitempty"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// decodeAndValidate reads a JSON body into dst and validates its tags.
// Failures are InvalidInput.
func decodeAndValidate(r *http.Request, op string, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewError(domain.KindInvalidInput, op, "invalid request body", err)
	}
	if err := validate.Struct(dst); err != nil {
		return domain.NewError(domain.KindInvalidInput, op, describeValidation(err), err)
	}
	return nil
}

// describeValidation turns validator errors into "field: rule" pairs.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

// requireUUID returns InvalidInput unless value is a UUID.
func requireUUID(op, name, value string) error {
	if err := validate.Var(value, "required,uuid"); err != nil {
		return domain.InvalidInputf(op, "%s must be a UUID", name)
	}
	return nil
}
