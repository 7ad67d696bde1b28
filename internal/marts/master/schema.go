package master

// The master fact table: one row per merged (order x item x payment) row,
// 13 business columns plus surrogate key and insert timestamp. The indexed
// columns back the query service's equality filters.
const createSchemaSQL = `
CREATE TABLE olist_master (
    id                            BIGSERIAL PRIMARY KEY,
    order_id                      VARCHAR(50),
    customer_id                   VARCHAR(50),
    customer_city                 VARCHAR(100),
    customer_state                VARCHAR(10),
    customer_zip_code_prefix      VARCHAR(20),
    order_status                  VARCHAR(50),
    order_purchase_timestamp      TIMESTAMP,
    order_delivered_customer_date TIMESTAMP,
    price                         NUMERIC(10,2),
    freight_value                 NUMERIC(10,2),
    payment_type                  VARCHAR(50),
    payment_value                 NUMERIC(10,2),
    product_id                    VARCHAR(50),
    created_at                    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_master_order ON olist_master (order_id);
CREATE INDEX idx_master_customer ON olist_master (customer_id);
CREATE INDEX idx_master_state ON olist_master (customer_state);
CREATE INDEX idx_master_status ON olist_master (order_status);
CREATE INDEX idx_master_product ON olist_master (product_id)`

// copyColumns is the column order used for batched writes.
var copyColumns = []string{
	"order_id",
	"customer_id",
	"customer_city",
	"customer_state",
	"customer_zip_code_prefix",
	"order_status",
	"order_purchase_timestamp",
	"order_delivered_customer_date",
	"price",
	"freight_value",
	"payment_type",
	"payment_value",
	"product_id",
}
