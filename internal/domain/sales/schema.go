package sales

import (
	"tombstone/internal/core/entity"
	"tombstone/internal/schema"
)

// Table names.
const (
	CustomerTable  = "cat_customers"
	OrderTable     = "doc_orders"
	OrderLineTable = "doc_order_lines"
	ShipmentTable  = "doc_shipments"
)

// RegisterSchema declares the sales entity graph:
//
//	order --(lines, owned to-many)-------> order_line
//	order --(shipment, owned to-one)-----> shipment
//	order --(customer, non-owned to-one)-> customer
//
// Owned relationships cascade through soft delete and restore; the customer
// reference never does.
func RegisterSchema(r *schema.Registry) error {
	defs := []schema.EntityDef{
		{
			Name:       EntityCustomer,
			Label:      "Customer",
			TableName:  CustomerTable,
			SoftDelete: true,
			New:        func() entity.SoftDeletable { return &Customer{} },
		},
		{
			Name:       EntityOrder,
			Label:      "Sales order",
			TableName:  OrderTable,
			SoftDelete: true,
			New:        func() entity.SoftDeletable { return &Order{} },
			Relationships: []schema.Relationship{
				{
					Name:         "lines",
					Cardinality:  schema.ToMany,
					Target:       EntityOrderLine,
					ForeignKey:   "order_id",
					OwnedCascade: true,
				},
				{
					Name:         "shipment",
					Cardinality:  schema.ToOne,
					Target:       EntityShipment,
					ForeignKey:   "order_id",
					OwnedCascade: true,
				},
				{
					Name:        "customer",
					Cardinality: schema.ToOne,
					Target:      EntityCustomer,
					LocalKey:    "customer_id",
				},
			},
		},
		{
			Name:       EntityOrderLine,
			Label:      "Order line",
			TableName:  OrderLineTable,
			SoftDelete: true,
			New:        func() entity.SoftDeletable { return &OrderLine{} },
		},
		{
			Name:       EntityShipment,
			Label:      "Shipment",
			TableName:  ShipmentTable,
			SoftDelete: true,
			New:        func() entity.SoftDeletable { return &Shipment{} },
		},
	}

	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
