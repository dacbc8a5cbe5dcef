package domain

import "time"

// CartItem is a single line of a buyer's cart. Repeated adds of the same
// product produce separate lines.
type CartItem struct {
	ID              ID
	BuyerID         ID
	ProductID       ID
	OrderedQuantity int
	CreatedAt       time.Time
}

type CartItemInput struct {
	ProductID       string `json:"productId" validate:"required"`
	OrderedQuantity int    `json:"orderedQuantity" validate:"required,gte=1"`
}
