package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olist-insights/olist-etl/internal/logging"
	"github.com/olist-insights/olist-etl/internal/pipeline"
)

const timestampLayout = "2006-01-02 15:04:05"

// Brazilian state codes weighted roughly by the real dataset's skew toward
// the southeast.
var (
	states       = []string{"SP", "RJ", "MG", "RS", "PR", "SC", "BA", "DF", "GO", "PE", "CE", "PA"}
	stateWeights = []int{42, 13, 12, 5, 5, 4, 3, 2, 2, 2, 1, 1}

	orderStatuses = []string{"delivered", "shipped", "canceled", "processing", "unavailable"}
	statusWeights = []int{92, 3, 2, 2, 1}

	paymentTypes   = []string{"credit_card", "boleto", "voucher", "debit_card"}
	paymentWeights = []int{74, 19, 5, 2}
)

// Seeder writes sample datasets shaped like the olist export: one customer
// record per order, a small product catalog shared across orders, and item
// and payment fan-out. A small fraction of rows is deliberately dirty
// (missing identifiers, undelivered orders) so the cleaning and null paths
// get exercised.
type Seeder struct {
	faker *Faker
}

// NewSeeder creates a Seeder backed by the given faker.
func NewSeeder(faker *Faker) *Seeder {
	return &Seeder{faker: faker}
}

// WriteSampleData generates orders orders and writes the four CSV files into
// dir, creating it if needed. It returns the total number of data rows
// written across all files.
func (s *Seeder) WriteSampleData(dir string, orders int) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}

	products := s.catalog(max(orders/10, 10))

	customerRows := [][]string{{"customer_id", "customer_city", "customer_state", "customer_zip_code_prefix"}}
	orderRows := [][]string{{"order_id", "customer_id", "order_status", "order_purchase_timestamp", "order_delivered_customer_date"}}
	itemRows := [][]string{{"order_id", "order_item_id", "product_id", "price", "freight_value"}}
	paymentRows := [][]string{{"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value"}}

	start := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < orders; i++ {
		customerID := s.faker.UUID()
		orderID := s.faker.UUID()

		customerRows = append(customerRows, []string{
			customerID,
			s.faker.City(),
			ChooseWeighted(s.faker, states, stateWeights),
			s.faker.Digits(5),
		})

		status := ChooseWeighted(s.faker, orderStatuses, statusWeights)
		purchased := s.faker.DateRange(start, end)
		delivered := ""
		if status == "delivered" {
			delivered = purchased.AddDate(0, 0, s.faker.Int(1, 30)).Format(timestampLayout)
		}

		// About 2% of orders lose their customer_id so cleaning has work to do.
		orderCustomer := customerID
		if s.faker.Int(1, 100) <= 2 {
			orderCustomer = ""
		}
		orderRows = append(orderRows, []string{
			orderID, orderCustomer, status,
			purchased.Format(timestampLayout), delivered,
		})

		var orderTotal float64
		for item := 1; item <= s.faker.Int(1, 3); item++ {
			price := s.faker.Price(10, 350)
			freight := s.faker.Price(5, 45)
			orderTotal += price + freight
			itemRows = append(itemRows, []string{
				orderID,
				fmt.Sprintf("%d", item),
				Choose(s.faker, products),
				fmt.Sprintf("%.2f", price),
				fmt.Sprintf("%.2f", freight),
			})
		}

		installments := s.faker.Int(1, 10)
		payments := 1
		if s.faker.Int(1, 100) <= 5 {
			payments = 2
		}
		for seq := 1; seq <= payments; seq++ {
			paymentRows = append(paymentRows, []string{
				orderID,
				fmt.Sprintf("%d", seq),
				ChooseWeighted(s.faker, paymentTypes, paymentWeights),
				fmt.Sprintf("%d", installments),
				fmt.Sprintf("%.2f", orderTotal/float64(payments)),
			})
		}
	}

	files := map[string][][]string{
		pipeline.CustomersFile: customerRows,
		pipeline.OrdersFile:    orderRows,
		pipeline.ItemsFile:     itemRows,
		pipeline.PaymentsFile:  paymentRows,
	}

	total := 0
	for name, rows := range files {
		if err := writeCSV(filepath.Join(dir, name), rows); err != nil {
			return 0, err
		}
		total += len(rows) - 1

		logging.Debug().
			Str("file", name).
			Int("rows", len(rows)-1).
			Msg("Wrote sample dataset")
	}

	return total, nil
}

// catalog returns n product ids reused across orders, so product_summary has
// repeat purchases to aggregate.
func (s *Seeder) catalog(n int) []string {
	products := make([]string, n)
	for i := range products {
		products[i] = s.faker.UUID()
	}
	return products
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	return f.Close()
}
