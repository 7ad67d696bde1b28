package product

const createSchemaSQL = `
CREATE TABLE product_summary (
    id               BIGSERIAL PRIMARY KEY,
    product_id       VARCHAR(50),
    total_orders     INTEGER,
    total_items_sold INTEGER,
    total_revenue    NUMERIC(12,2),
    avg_price        NUMERIC(12,2),
    total_freight    NUMERIC(12,2),
    avg_freight      NUMERIC(12,2),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_product_product ON product_summary (product_id)`

var copyColumns = []string{
	"product_id",
	"total_orders",
	"total_items_sold",
	"total_revenue",
	"avg_price",
	"total_freight",
	"avg_freight",
}
