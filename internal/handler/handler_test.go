package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/domain/catalog"
	"github.com/orderdesk/orderdesk/internal/domain/order"
	"github.com/orderdesk/orderdesk/internal/domain/product"
)

// --- Mock implementations ---

type stubProductSource struct {
	products []product.Product
}

func (s *stubProductSource) FetchProducts(_ context.Context) ([]product.Product, error) {
	return s.products, nil
}

type stubOrderRepo struct {
	orders  []order.Order
	listErr error
	created *order.Order
}

func (s *stubOrderRepo) Create(_ context.Context, o *order.Order) error {
	o.ID = "order-1"
	s.created = o
	return nil
}

func (s *stubOrderRepo) ListByEmail(_ context.Context, email string) ([]order.Order, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []order.Order
	for _, o := range s.orders {
		if strings.EqualFold(o.Email, email) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) List(_ context.Context) ([]order.Order, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.orders, nil
}

// --- Helpers ---

func newTestServer(t *testing.T, repo *stubOrderRepo, products ...product.Product) *httptest.Server {
	t.Helper()

	cat := catalog.New(&stubProductSource{products: products})
	require.NoError(t, cat.Load(context.Background()))

	limiter := order.NewLimiter(repo, 24*time.Hour, 3)
	svc := order.NewService(repo, limiter)

	mux := http.NewServeMux()
	New(cat, repo, svc, limiter).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func widget() product.Product {
	return product.Product{
		ID:        "p1",
		Name:      "Widget",
		UnitPrice: decimal.RequireFromString("600.00"),
		Stock:     5,
	}
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, into any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	return resp.StatusCode
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	srv := newTestServer(t, &stubOrderRepo{}, widget())

	var got []map[string]any
	code := getJSON(t, srv.URL+"/api/products", &got)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0]["id"])
	assert.Equal(t, "Widget", got[0]["name"])
	assert.InDelta(t, 600.0, got[0]["price"], 1e-9)
	assert.EqualValues(t, 5, got[0]["stock"])
}

func TestCreateOrder_Success(t *testing.T) {
	repo := &stubOrderRepo{}
	srv := newTestServer(t, repo, widget())

	var got map[string]any
	code := postJSON(t, srv.URL+"/api/orders", `{
		"customerName": "Carl",
		"email": "a@b.com",
		"products": [{"productId": "p1", "quantity": 2}]
	}`, &got)

	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "order-1", got["id"])
	assert.InDelta(t, 1080.0, got["total"], 1e-9)
	assert.NotEmpty(t, got["orderCode"])
	assert.NotEmpty(t, got["timestamp"])

	require.NotNil(t, repo.created)
	assert.Equal(t, []order.OrderLine{{ProductID: "p1", Quantity: 2}}, repo.created.Lines)
}

func TestCreateOrder_ValidationFailure(t *testing.T) {
	srv := newTestServer(t, &stubOrderRepo{}, widget())

	var got struct {
		Code   int `json:"code"`
		Errors []struct {
			Rule  string `json:"rule"`
			Field string `json:"field"`
		} `json:"errors"`
	}
	code := postJSON(t, srv.URL+"/api/orders", `{
		"customerName": "Al",
		"email": "a@b.com",
		"products": [
			{"productId": "p1", "quantity": 2},
			{"productId": "p1", "quantity": 9}
		]
	}`, &got)

	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, http.StatusUnprocessableEntity, got.Code)

	rules := make([]string, len(got.Errors))
	for i, e := range got.Errors {
		rules[i] = e.Rule
	}
	assert.Contains(t, rules, "MissingRequiredField")
	assert.Contains(t, rules, "DuplicateProduct")
	assert.Contains(t, rules, "QuantityExceeded")
	assert.Contains(t, rules, "InsufficientStock")
}

func TestCreateOrder_BadJSON(t *testing.T) {
	srv := newTestServer(t, &stubOrderRepo{}, widget())

	var got map[string]any
	code := postJSON(t, srv.URL+"/api/orders", `{not json`, &got)

	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateOrder_OrderLimit(t *testing.T) {
	now := time.Now()
	repo := &stubOrderRepo{orders: []order.Order{
		{Email: "a@b.com", CreatedAt: now.Add(-time.Hour)},
		{Email: "a@b.com", CreatedAt: now.Add(-2 * time.Hour)},
		{Email: "a@b.com", CreatedAt: now.Add(-3 * time.Hour)},
	}}
	srv := newTestServer(t, repo, widget())

	var got struct {
		Errors []struct {
			Rule string `json:"rule"`
		} `json:"errors"`
	}
	code := postJSON(t, srv.URL+"/api/orders", `{
		"customerName": "Carl",
		"email": "a@b.com",
		"products": [{"productId": "p1", "quantity": 1}]
	}`, &got)

	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "OrderLimitExceeded", got.Errors[0].Rule)
}

func TestListOrders_Filter(t *testing.T) {
	repo := &stubOrderRepo{orders: []order.Order{
		{ID: "1", CustomerName: "Maria", Email: "maria@shop.com", CreatedAt: time.Now()},
		{ID: "2", CustomerName: "Carl", Email: "carl@example.org", CreatedAt: time.Now()},
	}}
	srv := newTestServer(t, repo)

	var got []map[string]any
	code := getJSON(t, srv.URL+"/api/orders?q=maria", &got)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, got, 1)
	assert.Equal(t, "Maria", got[0]["customerName"])
}

func TestListOrders_ByEmail(t *testing.T) {
	repo := &stubOrderRepo{orders: []order.Order{
		{ID: "1", CustomerName: "Maria", Email: "maria@shop.com", CreatedAt: time.Now()},
		{ID: "2", CustomerName: "Carl", Email: "carl@example.org", CreatedAt: time.Now()},
	}}
	srv := newTestServer(t, repo)

	var got []map[string]any
	code := getJSON(t, srv.URL+"/api/orders?email=MARIA@shop.com", &got)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0]["id"])
}

func TestCheckOrderLimit(t *testing.T) {
	now := time.Now()

	t.Run("under limit", func(t *testing.T) {
		srv := newTestServer(t, &stubOrderRepo{})

		var got map[string]any
		code := getJSON(t, srv.URL+"/api/orders/limit?email=a@b.com", &got)

		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, got["ok"])
	})

	t.Run("limited", func(t *testing.T) {
		repo := &stubOrderRepo{orders: []order.Order{
			{Email: "a@b.com", CreatedAt: now},
			{Email: "a@b.com", CreatedAt: now},
			{Email: "a@b.com", CreatedAt: now},
		}}
		srv := newTestServer(t, repo)

		var got map[string]any
		code := getJSON(t, srv.URL+"/api/orders/limit?email=a@b.com", &got)

		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, false, got["ok"])
		assert.NotEmpty(t, got["reason"])
	})

	t.Run("history outage fails open", func(t *testing.T) {
		srv := newTestServer(t, &stubOrderRepo{listErr: errors.New("history down")})

		var got map[string]any
		code := getJSON(t, srv.URL+"/api/orders/limit?email=a@b.com", &got)

		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, got["ok"])
	})
}
