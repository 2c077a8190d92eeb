package sales

import (
	"context"

	"github.com/shopspring/decimal"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
)

// Order represents a sales order. Its lines and shipment are owned: they
// follow the order through soft delete and restore.
type Order struct {
	entity.Document

	// Number is the human-facing order number
	Number string `db:"number" json:"number"`

	// Customer reference (non-owned)
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	Currency string `db:"currency" json:"currency"`

	// Totals (calculated from lines)
	TotalQuantity decimal.Decimal `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`

	// Table part: order lines (loaded through the store, not a column)
	Lines []*OrderLine `db:"-" json:"lines,omitempty"`
}

// OrderLine represents one position of an order.
type OrderLine struct {
	entity.Base

	OrderID id.ID `db:"order_id" json:"orderId"`
	LineNo  int   `db:"line_no" json:"lineNo"`

	ProductCode string          `db:"product_code" json:"productCode"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
}

// NewOrder creates a sales order for a customer.
func NewOrder(number string, customerID id.ID) *Order {
	return &Order{
		Document:      entity.NewDocument(),
		Number:        number,
		CustomerID:    customerID,
		Currency:      "EUR",
		TotalQuantity: decimal.Zero,
		TotalAmount:   decimal.Zero,
		Lines:         make([]*OrderLine, 0),
	}
}

// AddLine appends a line and recalculates totals.
func (o *Order) AddLine(productCode string, quantity, unitPrice decimal.Decimal) *OrderLine {
	line := &OrderLine{
		Base:        entity.NewBase(),
		OrderID:     o.ID,
		LineNo:      len(o.Lines) + 1,
		ProductCode: productCode,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      quantity.Mul(unitPrice),
	}
	o.Lines = append(o.Lines, line)
	o.recalculateTotals()
	return line
}

// recalculateTotals updates order totals from lines.
func (o *Order) recalculateTotals() {
	o.TotalQuantity = decimal.Zero
	o.TotalAmount = decimal.Zero
	for _, line := range o.Lines {
		o.TotalQuantity = o.TotalQuantity.Add(line.Quantity)
		o.TotalAmount = o.TotalAmount.Add(line.Amount)
	}
}

// EntityName implements entity.SoftDeletable.
func (o *Order) EntityName() string {
	return EntityOrder
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if o.Number == "" {
		return apperror.NewValidation("order number is required").
			WithDetail("field", "number")
	}
	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if o.Currency == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currency")
	}
	for _, line := range o.Lines {
		if err := line.Validate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EntityName implements entity.SoftDeletable.
func (l *OrderLine) EntityName() string {
	return EntityOrderLine
}

// Validate implements entity.Validatable.
func (l *OrderLine) Validate(ctx context.Context) error {
	if l.ProductCode == "" {
		return apperror.NewValidation("product code is required").
			WithDetail("field", "productCode").
			WithDetail("lineNo", l.LineNo)
	}
	if l.Quantity.Sign() <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("lineNo", l.LineNo)
	}
	if l.UnitPrice.Sign() < 0 {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice").
			WithDetail("lineNo", l.LineNo)
	}
	return nil
}
