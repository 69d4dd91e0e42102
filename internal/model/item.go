package model

import (
	"github.com/go-playground/validator/v10"
)

// LineItem is one product entry in the cart, with its quantity.
// The JSON field names match what storefront clients already persist.
type LineItem struct {
	ID       string  `json:"id" validate:"required"`
	Title    string  `json:"title" validate:"required"`
	ImageURL string  `json:"image_url" validate:"omitempty,url"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a candidate item before it enters the cart.
// The cart itself accepts anything; callers taking user input run this first.
func (it LineItem) Validate() error {
	return validate.Struct(it)
}

// Subtotal is price times quantity.
func (it LineItem) Subtotal() float64 {
	return it.Price * float64(it.Quantity)
}
