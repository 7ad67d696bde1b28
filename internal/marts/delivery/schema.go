package delivery

const createSchemaSQL = `
CREATE TABLE delivery_summary (
    id                   BIGSERIAL PRIMARY KEY,
    customer_state       VARCHAR(10),
    total_orders         INTEGER,
    delivered_orders     INTEGER,
    delivery_rate        NUMERIC(5,2),
    avg_delivery_days    NUMERIC(10,2),
    median_delivery_days NUMERIC(10,2),
    fastest_delivery     INTEGER,
    slowest_delivery     INTEGER,
    std_delivery_days    NUMERIC(10,2),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_delivery_state ON delivery_summary (customer_state)`

var copyColumns = []string{
	"customer_state",
	"total_orders",
	"delivered_orders",
	"delivery_rate",
	"avg_delivery_days",
	"median_delivery_days",
	"fastest_delivery",
	"slowest_delivery",
	"std_delivery_days",
}
