package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

type fakeOrders struct {
	created      *entity.SalesOrder
	createdItems []entity.SalesOrderItem
	byID         map[int64]*entity.SalesOrder
	lastParams   repository.ListParams
	lastUpdate   map[string]any
	listResult   []entity.SalesOrder
}

func (f *fakeOrders) Create(_ context.Context, order *entity.SalesOrder, items []entity.SalesOrderItem) (*entity.SalesOrder, []entity.SalesOrderItem, error) {
	stored := *order
	stored.SalesOrderID = 1001
	f.created = &stored
	for i := range items {
		items[i].SalesOrderID = stored.SalesOrderID
		items[i].SalesOrderDetailID = int64(i + 1)
	}
	f.createdItems = items
	return &stored, items, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*entity.SalesOrder, []entity.SalesOrderItem, error) {
	if o, ok := f.byID[id]; ok {
		return o, nil, nil
	}
	return nil, nil, common.WrapError(common.ErrNotFound, "sales order")
}

func (f *fakeOrders) List(_ context.Context, params repository.ListParams) ([]entity.SalesOrder, repository.Pagination, error) {
	if err := params.Normalize(); err != nil {
		return nil, repository.Pagination{}, err
	}
	f.lastParams = params
	return f.listResult, repository.Pagination{
		Page: params.Page, PerPage: params.PerPage,
		Total: int64(len(f.listResult)), TotalPages: 1,
	}, nil
}

func (f *fakeOrders) Update(_ context.Context, id int64, fields map[string]any) (*entity.SalesOrder, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, common.WrapError(common.ErrNotFound, "sales order")
	}
	f.lastUpdate = fields
	if v, present := fields["SalesOrderNumber"]; present {
		str := v.(string)
		o.SalesOrderNumber = &str
	}
	if v, present := fields["Status"]; present {
		n := v.(int64)
		o.Status = &n
	}
	return o, nil
}

func (f *fakeOrders) Delete(_ context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return common.WrapError(common.ErrNotFound, "sales order")
	}
	delete(f.byID, id)
	return nil
}

func newOrdersServer(orders repository.SalesOrders) http.Handler {
	return New(&fakePipeline{}, orders, nil, nil).Router()
}

func TestListOrders_Defaults(t *testing.T) {
	fake := &fakeOrders{listResult: []entity.SalesOrder{{SalesOrderID: 1, CustomerID: 2, TerritoryID: 3}}}
	h := newOrdersServer(fake)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales_orders", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fake.lastParams.Page)
	assert.Equal(t, 10, fake.lastParams.PerPage)
	assert.Equal(t, "SalesOrderID", fake.lastParams.SortBy)
	assert.Equal(t, "asc", fake.lastParams.SortDir)

	var resp struct {
		Data       []entity.SalesOrder   `json:"data"`
		Pagination repository.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(1), resp.Data[0].SalesOrderID)
}

func TestListOrders_BadParams(t *testing.T) {
	h := newOrdersServer(&fakeOrders{})

	for _, q := range []string{
		"page=abc",
		"per_page=abc",
		"page=0",
		"per_page=0",
		"per_page=101",
		"sort_by=Bogus",
		"order=sideways",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales_orders?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", q)
	}
}

func TestCreateOrder(t *testing.T) {
	fake := &fakeOrders{}
	h := newOrdersServer(fake)

	body := `{
		"CustomerID": 42, "TerritoryID": 7,
		"OrderDate": "2024-06-01T00:00:00",
		"SubTotal": 100.5,
		"line_items": [{"OrderQty": 2, "ProductID": 5, "LineTotal": 100.5}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/sales_orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, fake.created)
	assert.Equal(t, int64(42), fake.created.CustomerID)
	assert.Equal(t, int64(7), fake.created.TerritoryID)
	require.NotNil(t, fake.created.OrderDate)
	assert.Equal(t, "2024-06-01", fake.created.OrderDate.Format("2006-01-02"))
	require.Len(t, fake.createdItems, 1)
	assert.Equal(t, int64(1001), fake.createdItems[0].SalesOrderID)
}

func TestCreateOrder_Validation(t *testing.T) {
	h := newOrdersServer(&fakeOrders{})

	tests := []struct {
		name string
		ct   string
		body string
	}{
		{"not json content type", "text/plain", `{}`},
		{"missing CustomerID", "application/json", `{"TerritoryID": 7}`},
		{"missing TerritoryID", "application/json", `{"CustomerID": 42}`},
		{"bad date", "application/json", `{"CustomerID": 42, "TerritoryID": 7, "OrderDate": "June 1st"}`},
		{"invalid json", "application/json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sales_orders", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ct)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetOrder(t *testing.T) {
	fake := &fakeOrders{byID: map[int64]*entity.SalesOrder{
		5: {SalesOrderID: 5, CustomerID: 42, TerritoryID: 7},
	}}
	h := newOrdersServer(fake)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales_orders/5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales_orders/999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales_orders/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrder(t *testing.T) {
	fake := &fakeOrders{byID: map[int64]*entity.SalesOrder{
		5: {SalesOrderID: 5, CustomerID: 42, TerritoryID: 7},
	}}
	h := newOrdersServer(fake)

	body := `{
		"SalesOrderID": 5,
		"SalesOrderNumber": "SO-5-rev2",
		"Status": 3,
		"OrderDate": "2024-06-01T00:00:00Z",
		"Unknown": "ignored"
	}`
	req := httptest.NewRequest(http.MethodPut, "/sales_orders/5", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// Only whitelisted fields reach the store, with dates parsed and
	// integers converted.
	require.NotNil(t, fake.lastUpdate)
	assert.NotContains(t, fake.lastUpdate, "Unknown")
	assert.NotContains(t, fake.lastUpdate, "SalesOrderID")
	assert.Equal(t, int64(3), fake.lastUpdate["Status"])
	date, ok := fake.lastUpdate["OrderDate"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, "2024-06-01", date.Format("2006-01-02"))

	var resp entity.SalesOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.SalesOrderNumber)
	assert.Equal(t, "SO-5-rev2", *resp.SalesOrderNumber)
}

func TestUpdateOrder_Validation(t *testing.T) {
	fake := &fakeOrders{byID: map[int64]*entity.SalesOrder{
		5: {SalesOrderID: 5, CustomerID: 42, TerritoryID: 7},
	}}
	h := newOrdersServer(fake)

	tests := []struct {
		name   string
		target string
		ct     string
		body   string
		status int
	}{
		{"not json content type", "/sales_orders/5", "text/plain", `{}`, http.StatusBadRequest},
		{"invalid json", "/sales_orders/5", "application/json", `{`, http.StatusBadRequest},
		{"id mismatch", "/sales_orders/5", "application/json", `{"SalesOrderID": 6}`, http.StatusBadRequest},
		{"bad date", "/sales_orders/5", "application/json", `{"OrderDate": "June 1st"}`, http.StatusBadRequest},
		{"fractional integer", "/sales_orders/5", "application/json", `{"Status": 1.5}`, http.StatusBadRequest},
		{"unknown order", "/sales_orders/999", "application/json", `{"Status": 1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ct)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestDeleteOrder(t *testing.T) {
	fake := &fakeOrders{byID: map[int64]*entity.SalesOrder{
		5: {SalesOrderID: 5, CustomerID: 42, TerritoryID: 7},
	}}
	h := newOrdersServer(fake)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sales_orders/5", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sales_orders/5", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
