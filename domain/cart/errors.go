package cart

import (
	"errors"
	"fmt"

	"github.com/artpar/plancart/domain/catalog"
)

// EmptyCartError reports a checkout attempt on an empty cart. Every
// instance matches ErrEmptyCart under errors.Is.
type EmptyCartError struct{}

func (*EmptyCartError) Error() string {
	return "cart is empty, nothing to checkout"
}

// Is reports whether target is an EmptyCartError.
func (*EmptyCartError) Is(target error) bool {
	_, ok := target.(*EmptyCartError)
	return ok
}

// ErrEmptyCart is returned when a checkout request is built from an empty cart.
var ErrEmptyCart error = &EmptyCartError{}

// ValidationError reports bad input to a selector operation.
type ValidationError struct {
	Field  string // "product_id" or "price_id"
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// CategoryConflictError reports an attempt to mix trial and regular products.
type CategoryConflictError struct {
	ProductID string
	Want      catalog.Category // category of the product being added
	Have      catalog.Category // category already in the cart
}

func (e *CategoryConflictError) Error() string {
	return fmt.Sprintf("cannot add %s product %q to a cart holding %s products: clear the current selection first",
		e.Want, e.ProductID, e.Have)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCategoryConflict reports whether err is a CategoryConflictError.
func IsCategoryConflict(err error) bool {
	var ce *CategoryConflictError
	return errors.As(err, &ce)
}
