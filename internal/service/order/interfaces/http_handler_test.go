// internal/service/order/interfaces/http_handler_test.go
package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emporium/internal/service/catalog/alert"
	catalogdomain "emporium/internal/service/catalog/domain"
	"emporium/internal/service/order/application"
	"emporium/internal/service/order/domain"
)

// stubEngine 按字段逐方法打桩。
type stubEngine struct {
	createFn       func(ctx context.Context, req *application.CreateOrderRequest) (*application.OrderView, error)
	getFn          func(ctx context.Context, id string) (*application.OrderView, error)
	ownerFn        func(ctx context.Context, ownerID uint64) ([]*application.OrderView, error)
	updateStatusFn func(ctx context.Context, id, newStatus string) (*application.OrderView, error)
	cancelFn       func(ctx context.Context, id string) (*application.OrderView, error)
	listFn         func(ctx context.Context) ([]*application.OrderView, error)
	countFn        func(ctx context.Context) (int64, error)
	revenueFn      func(ctx context.Context) (decimal.Decimal, error)
	recentFn       func(ctx context.Context, n int) ([]*application.OrderView, error)
	statusCountsFn func(ctx context.Context) (map[domain.Status]int64, error)
	dashboardFn    func(ctx context.Context, recentN int) (*application.DashboardSummary, error)
}

func (s *stubEngine) CreateOrder(ctx context.Context, req *application.CreateOrderRequest) (*application.OrderView, error) {
	return s.createFn(ctx, req)
}

func (s *stubEngine) GetOrder(ctx context.Context, id string) (*application.OrderView, error) {
	return s.getFn(ctx, id)
}

func (s *stubEngine) GetOrdersForOwner(ctx context.Context, ownerID uint64) ([]*application.OrderView, error) {
	return s.ownerFn(ctx, ownerID)
}

func (s *stubEngine) UpdateStatus(ctx context.Context, id, newStatus string) (*application.OrderView, error) {
	return s.updateStatusFn(ctx, id, newStatus)
}

func (s *stubEngine) CancelOrder(ctx context.Context, id string) (*application.OrderView, error) {
	return s.cancelFn(ctx, id)
}

func (s *stubEngine) ListAllOrders(ctx context.Context) ([]*application.OrderView, error) {
	return s.listFn(ctx)
}

func (s *stubEngine) CountOrders(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

func (s *stubEngine) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	return s.revenueFn(ctx)
}

func (s *stubEngine) RecentOrders(ctx context.Context, n int) ([]*application.OrderView, error) {
	return s.recentFn(ctx, n)
}

func (s *stubEngine) StatusCounts(ctx context.Context) (map[domain.Status]int64, error) {
	return s.statusCountsFn(ctx)
}

func (s *stubEngine) Dashboard(ctx context.Context, recentN int) (*application.DashboardSummary, error) {
	return s.dashboardFn(ctx, recentN)
}

type stubAlerter struct {
	alerts []alert.StockAlert
	err    error
}

func (s *stubAlerter) Scan(context.Context) ([]alert.StockAlert, error) {
	return s.alerts, s.err
}

func newTestServer(engine *stubEngine, alerter StockAlerter) *httptest.Server {
	mux := http.NewServeMux()
	NewOrderHandler(engine, alerter, nil, nil).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func sampleView(id string) *application.OrderView {
	return &application.OrderView{
		ID:          id,
		OwnerID:     1,
		OrderDate:   "2026-05-01T12:00:00Z",
		Status:      "PENDING",
		TotalAmount: "249.95",
		Lines:       []application.LineView{{ProductID: 10, Quantity: 2}},
	}
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestCreateOrderEndpoint(t *testing.T) {
	var got *application.CreateOrderRequest
	engine := &stubEngine{
		createFn: func(_ context.Context, req *application.CreateOrderRequest) (*application.OrderView, error) {
			got = req
			return sampleView("ord-1"), nil
		},
	}
	srv := newTestServer(engine, nil)
	defer srv.Close()

	body := `{"ownerId":1,"lines":[{"productId":10,"quantity":2}]}`
	resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var view application.OrderView
	decodeBody(t, resp, &view)
	assert.Equal(t, "ord-1", view.ID)
	assert.Equal(t, "249.95", view.TotalAmount)

	require.NotNil(t, got)
	assert.Equal(t, uint64(1), got.OwnerID)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, uint64(10), got.Lines[0].ProductID)
}

// 结构性校验在 HTTP 层完成，根本不会调到引擎。
func TestCreateOrderEndpointRejectsBadRequests(t *testing.T) {
	engine := &stubEngine{
		createFn: func(context.Context, *application.CreateOrderRequest) (*application.OrderView, error) {
			t.Fatal("engine must not be called")
			return nil, nil
		},
	}
	srv := newTestServer(engine, nil)
	defer srv.Close()

	cases := []string{
		`not json`,
		`{"lines":[{"productId":10,"quantity":1}]}`,          // 缺 ownerId
		`{"ownerId":1,"lines":[]}`,                           // 空行列表
		`{"ownerId":1,"lines":[{"productId":10}]}`,           // 数量缺失
		`{"ownerId":1,"lines":[{"productId":10,"quantity":-2}]}`, // 数量为负
		`{"ownerId":1,"lines":[{"quantity":1}]}`,             // 商品缺失
	}
	for _, body := range cases {
		resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body=%s", body)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", domain.ErrOrderNotFound, http.StatusNotFound},
		{"insufficient stock", &catalogdomain.InsufficientStockError{ProductID: 10, ProductName: "keyboard", Requested: 5, Available: 2}, http.StatusConflict},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusConflict},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &stubEngine{
				getFn: func(context.Context, string) (*application.OrderView, error) {
					return nil, tc.err
				},
			}
			srv := newTestServer(engine, nil)
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/orders/ord-1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)

			var body map[string]string
			decodeBody(t, resp, &body)
			assert.NotEmpty(t, body["error"])
			if tc.want == http.StatusInternalServerError {
				assert.Equal(t, "internal error", body["error"], "internals must not leak")
			}
		})
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	engine := &stubEngine{
		updateStatusFn: func(_ context.Context, id, newStatus string) (*application.OrderView, error) {
			if newStatus == "TELEPORTED" {
				return nil, domain.ErrInvalidStatus
			}
			v := sampleView(id)
			v.Status = newStatus
			return v, nil
		},
	}
	srv := newTestServer(engine, nil)
	defer srv.Close()

	put := func(body string) *http.Response {
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/orders/ord-1/status", bytes.NewBufferString(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp := put(`{"status":"SHIPPED"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var view application.OrderView
	decodeBody(t, resp, &view)
	assert.Equal(t, "SHIPPED", view.Status)

	resp = put(`{"status":"TELEPORTED"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = put(`{}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing status field")
}

func TestCancelEndpoint(t *testing.T) {
	engine := &stubEngine{
		cancelFn: func(_ context.Context, id string) (*application.OrderView, error) {
			v := sampleView(id)
			v.Status = "CANCELLED"
			return v, nil
		},
	}
	srv := newTestServer(engine, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders/ord-1/cancel", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var view application.OrderView
	decodeBody(t, resp, &view)
	assert.Equal(t, "CANCELLED", view.Status)
}

func TestOwnerOrdersEndpoint(t *testing.T) {
	engine := &stubEngine{
		ownerFn: func(_ context.Context, ownerID uint64) ([]*application.OrderView, error) {
			assert.Equal(t, uint64(7), ownerID)
			return []*application.OrderView{sampleView("ord-1")}, nil
		},
	}
	srv := newTestServer(engine, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/users/7/orders")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var views []*application.OrderView
	decodeBody(t, resp, &views)
	require.Len(t, views, 1)

	resp, err = http.Get(srv.URL + "/users/notanumber/orders")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminEndpoints(t *testing.T) {
	engine := &stubEngine{
		countFn: func(context.Context) (int64, error) { return 42, nil },
		revenueFn: func(context.Context) (decimal.Decimal, error) {
			return decimal.RequireFromString("349.95"), nil
		},
		recentFn: func(_ context.Context, n int) ([]*application.OrderView, error) {
			views := make([]*application.OrderView, 0, n)
			for i := 0; i < n && i < 3; i++ {
				views = append(views, sampleView("ord-1"))
			}
			return views, nil
		},
		statusCountsFn: func(context.Context) (map[domain.Status]int64, error) {
			return map[domain.Status]int64{
				domain.StatusPending:    1,
				domain.StatusProcessing: 0,
				domain.StatusShipped:    2,
				domain.StatusDelivered:  0,
				domain.StatusCancelled:  0,
			}, nil
		},
	}
	srv := newTestServer(engine, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/admin/orders/count")
	require.NoError(t, err)
	var count map[string]int64
	decodeBody(t, resp, &count)
	assert.Equal(t, int64(42), count["count"])

	resp, err = http.Get(srv.URL + "/admin/revenue")
	require.NoError(t, err)
	var revenue map[string]string
	decodeBody(t, resp, &revenue)
	assert.Equal(t, "349.95", revenue["totalRevenue"])

	resp, err = http.Get(srv.URL + "/admin/orders/recent?limit=2")
	require.NoError(t, err)
	var recent []*application.OrderView
	decodeBody(t, resp, &recent)
	assert.Len(t, recent, 2)

	resp, err = http.Get(srv.URL + "/admin/orders/recent?limit=0")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/admin/orders/status-counts")
	require.NoError(t, err)
	var counts map[string]int64
	decodeBody(t, resp, &counts)
	assert.Len(t, counts, 5)
	assert.Equal(t, int64(2), counts["SHIPPED"])
	assert.Equal(t, int64(0), counts["CANCELLED"], "zero-filled")
}

func TestStockAlertsEndpoint(t *testing.T) {
	alerter := &stubAlerter{alerts: []alert.StockAlert{
		{ProductID: 2, Name: "mouse", Stock: 2, Rules: []string{"stock < 10"}},
	}}
	srv := newTestServer(&stubEngine{}, alerter)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/admin/stock-alerts")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var alerts []alert.StockAlert
	decodeBody(t, resp, &alerts)
	require.Len(t, alerts, 1)
	assert.Equal(t, "mouse", alerts[0].Name)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubEngine{}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
