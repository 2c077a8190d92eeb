package sales

import (
	"context"
	"time"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
)

// Shipment represents the dispatch of an order. An order has at most one
// shipment, and the shipment's lifecycle is owned by the order.
type Shipment struct {
	entity.Document

	OrderID id.ID `db:"order_id" json:"orderId"`

	Carrier      string     `db:"carrier" json:"carrier"`
	TrackingCode string     `db:"tracking_code" json:"trackingCode,omitempty"`
	ShippedAt    *time.Time `db:"shipped_at" json:"shippedAt,omitempty"`
}

// NewShipment creates a shipment for an order.
func NewShipment(orderID id.ID, carrier string) *Shipment {
	return &Shipment{
		Document: entity.NewDocument(),
		OrderID:  orderID,
		Carrier:  carrier,
	}
}

// EntityName implements entity.SoftDeletable.
func (s *Shipment) EntityName() string {
	return EntityShipment
}

// Validate implements entity.Validatable.
func (s *Shipment) Validate(ctx context.Context) error {
	if id.IsNil(s.OrderID) {
		return apperror.NewValidation("order is required").
			WithDetail("field", "orderId")
	}
	if s.Carrier == "" {
		return apperror.NewValidation("carrier is required").
			WithDetail("field", "carrier")
	}
	return nil
}
