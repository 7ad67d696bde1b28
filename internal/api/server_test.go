package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubStore serves canned rows and records the last query it saw.
type stubStore struct {
	rows    []map[string]any
	stats   *SummaryStats
	err     error
	pingErr error

	lastTable   string
	lastFilters Filters
	lastPage    Page
}

func (s *stubStore) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubStore) TableRows(ctx context.Context, table string, filters Filters, page Page) ([]map[string]any, error) {
	s.lastTable = table
	s.lastFilters = filters
	s.lastPage = page
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *stubStore) Summary(ctx context.Context) (*SummaryStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func get(t *testing.T, store Store, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	NewServer(store).Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := get(t, &stubStore{}, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
}

func TestHealthUnreachableDatabase(t *testing.T) {
	w := get(t, &stubStore{pingErr: context.DeadlineExceeded}, "/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}

func TestTableEndpointFilterMapping(t *testing.T) {
	store := &stubStore{rows: []map[string]any{{"order_id": "o1"}}}

	w := get(t, store, "/tables/master?state=SP&status=delivered&limit=5&offset=10")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if store.lastTable != "olist_master" {
		t.Errorf("Expected olist_master, got %s", store.lastTable)
	}
	if store.lastFilters["customer_state"] != "SP" || store.lastFilters["order_status"] != "delivered" {
		t.Errorf("Query params should map to columns, got %v", store.lastFilters)
	}
	if store.lastPage.Limit != 5 || store.lastPage.Offset != 10 {
		t.Errorf("Unexpected page: %+v", store.lastPage)
	}

	var body struct {
		Count int              `json:"count"`
		Data  []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || len(body.Data) != 1 {
		t.Errorf("Expected 1 row, got %+v", body)
	}
}

func TestTableEndpointIgnoresUnknownParams(t *testing.T) {
	store := &stubStore{}
	get(t, store, "/tables/products?product_id=p1&drop_table=x")

	if len(store.lastFilters) != 1 || store.lastFilters["product_id"] != "p1" {
		t.Errorf("Only whitelisted params may filter, got %v", store.lastFilters)
	}
}

func TestPaginationDefaultsAndClamping(t *testing.T) {
	store := &stubStore{}

	get(t, store, "/tables/sales")
	if store.lastPage.Limit != defaultLimit || store.lastPage.Offset != 0 {
		t.Errorf("Expected default page, got %+v", store.lastPage)
	}

	get(t, store, "/tables/sales?limit=999999&offset=-3")
	if store.lastPage.Limit != maxLimit {
		t.Errorf("Limit should clamp to %d, got %d", maxLimit, store.lastPage.Limit)
	}
	if store.lastPage.Offset != 0 {
		t.Errorf("Negative offset should clamp to 0, got %d", store.lastPage.Offset)
	}

	w := get(t, store, "/tables/sales?limit=abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Non-numeric limit should 400, got %d", w.Code)
	}
}

func TestMissingTableReturns503(t *testing.T) {
	w := get(t, &stubStore{err: ErrTableMissing}, "/tables/states")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the pipeline has run, got %d", w.Code)
	}
}

func TestStatsSummary(t *testing.T) {
	stats := &SummaryStats{
		TotalCustomers: 10,
		TotalOrders:    12,
		TotalRevenue:   340.50,
		AvgOrderValue:  28.375,
		TopStates:      []StateRevenue{{State: "SP", Revenue: 200}},
	}

	w := get(t, &stubStore{stats: stats}, "/stats/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var got SummaryStats
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.TotalOrders != 12 || got.TotalRevenue != 340.50 {
		t.Errorf("Unexpected summary: %+v", got)
	}
	if len(got.TopStates) != 1 || got.TopStates[0].State != "SP" {
		t.Errorf("Unexpected top states: %+v", got.TopStates)
	}
}

func TestEmptyTableIsOKNotError(t *testing.T) {
	w := get(t, &stubStore{rows: []map[string]any{}}, "/tables/delivery")
	if w.Code != http.StatusOK {
		t.Errorf("An empty table is a valid result, got %d", w.Code)
	}
}
