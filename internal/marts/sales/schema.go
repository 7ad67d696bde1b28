package sales

const createSchemaSQL = `
CREATE TABLE sales_summary (
    id              BIGSERIAL PRIMARY KEY,
    customer_id     VARCHAR(50),
    customer_state  VARCHAR(10),
    customer_city   VARCHAR(100),
    total_spent     NUMERIC(12,2),
    total_orders    INTEGER,
    total_items     INTEGER,
    avg_order_value NUMERIC(12,2),
    avg_price       NUMERIC(12,2),
    avg_freight     NUMERIC(12,2),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_sales_customer ON sales_summary (customer_id);
CREATE INDEX idx_sales_state ON sales_summary (customer_state)`

var copyColumns = []string{
	"customer_id",
	"customer_state",
	"customer_city",
	"total_spent",
	"total_orders",
	"total_items",
	"avg_order_value",
	"avg_price",
	"avg_freight",
}
