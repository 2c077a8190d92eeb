// Package sales provides the sample order-processing entity graph the
// platform ships with: customers, orders with their lines, and shipments.
// The graph exercises every relationship shape the cascade supports.
package sales

import (
	"context"
	"regexp"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Registered entity names.
const (
	EntityCustomer  = "customer"
	EntityOrder     = "order"
	EntityOrderLine = "order_line"
	EntityShipment  = "shipment"
)

// Customer represents a buyer. Orders reference customers but do not own
// them: soft-deleting an order leaves its customer untouched.
type Customer struct {
	entity.Catalog

	Email string `db:"email" json:"email,omitempty"`
}

// NewCustomer creates a customer catalog entry.
func NewCustomer(code, name string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(code, name),
	}
}

// EntityName implements entity.SoftDeletable.
func (c *Customer) EntityName() string {
	return EntityCustomer
}

// Validate implements entity.Validatable.
func (c *Customer) Validate(ctx context.Context) error {
	if c.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if c.Email != "" && !emailRE.MatchString(c.Email) {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email")
	}
	return nil
}
