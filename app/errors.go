package app

import (
	"errors"
	"fmt"

	"github.com/artpar/plancart/domain/cart"
	"github.com/go-playground/validator/v10"
)

// ErrNoCatalog is returned by cart operations before a catalog was loaded.
var ErrNoCatalog = errors.New("no catalog loaded, load plans first")

// UpstreamError wraps a failure of the payments backend or a provider.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err came from the backend.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

// validationError converts the first validator field error into a
// *cart.ValidationError so every input failure surfaces the same way.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &cart.ValidationError{
		Field:  fe.Field(),
		Value:  fmt.Sprint(fe.Value()),
		Reason: reason(fe),
	}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "alpha":
		return "must contain letters only"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
