package state

const createSchemaSQL = `
CREATE TABLE state_summary (
    id              BIGSERIAL PRIMARY KEY,
    customer_state  VARCHAR(10),
    total_customers INTEGER,
    total_orders    INTEGER,
    total_revenue   NUMERIC(14,2),
    avg_order_value NUMERIC(12,2),
    total_items     INTEGER,
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_state_state ON state_summary (customer_state)`

var copyColumns = []string{
	"customer_state",
	"total_customers",
	"total_orders",
	"total_revenue",
	"avg_order_value",
	"total_items",
}
