// Package pipeline implements the extract and transform stages: loading the
// four olist CSV datasets, dropping rows without mandatory identifiers, and
// left-joining them into the wide merged relation the mart builders consume.
package pipeline

import (
	"errors"

	"github.com/olist-insights/olist-etl/internal/table"
)

// ErrSourceUnavailable marks a required input file that is missing or
// unreadable. It is fatal and aborts the run before any write.
var ErrSourceUnavailable = errors.New("source unavailable")

// Sources holds the four raw datasets as loaded, prior to cleaning.
type Sources struct {
	Customers *table.Frame
	Orders    *table.Frame
	Items     *table.Frame
	Payments  *table.Frame
}

// Merged is the output of the transform stage. Frame is the fanned-out
// orders⋈customers⋈items⋈payments relation. Customers and Orders are the
// cleaned intermediates, kept because the delivery summary must aggregate
// per order rather than per merged row.
type Merged struct {
	Frame     *table.Frame
	Customers *table.Frame
	Orders    *table.Frame
}

// Required identifier columns per source. A row missing any of these cannot
// participate in the joins and is dropped by Transform.
var (
	customerRequired = []string{"customer_id"}
	orderRequired    = []string{"order_id", "customer_id"}
	itemRequired     = []string{"order_id"}
	paymentRequired  = []string{"order_id"}
)

// Transform cleans the four sources and merges them into the wide relation:
// orders ⋈ customers on customer_id, then ⋈ items and ⋈ payments on
// order_id, all left-outer. Every cleaned order survives; items and
// payments fan rows out multiplicatively.
func Transform(src *Sources) *Merged {
	customers := Clean(src.Customers, customerRequired...)
	orders := Clean(src.Orders, orderRequired...)
	items := Clean(src.Items, itemRequired...)
	payments := Clean(src.Payments, paymentRequired...)

	merged := LeftJoin(orders, customers, "customer_id")
	merged = LeftJoin(merged, items, "order_id")
	merged = LeftJoin(merged, payments, "order_id")

	return &Merged{
		Frame:     merged,
		Customers: customers,
		Orders:    orders,
	}
}
