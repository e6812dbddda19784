// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"emporium/internal/pkg/logger"
	"emporium/internal/pkg/metrics"
	"emporium/internal/service/catalog/alert"
	catalogdomain "emporium/internal/service/catalog/domain"
	"emporium/internal/service/order/application"
	"emporium/internal/service/order/domain"
	userdomain "emporium/internal/service/user/domain"
)

const serviceName = "order-service"

const defaultRecentLimit = 10

// OrderEngine 是 HTTP 层对订单引擎的依赖面，测试里用桩替换。
type OrderEngine interface {
	CreateOrder(ctx context.Context, req *application.CreateOrderRequest) (*application.OrderView, error)
	GetOrder(ctx context.Context, id string) (*application.OrderView, error)
	GetOrdersForOwner(ctx context.Context, ownerID uint64) ([]*application.OrderView, error)
	UpdateStatus(ctx context.Context, id, newStatus string) (*application.OrderView, error)
	CancelOrder(ctx context.Context, id string) (*application.OrderView, error)
	ListAllOrders(ctx context.Context) ([]*application.OrderView, error)
	CountOrders(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	RecentOrders(ctx context.Context, n int) ([]*application.OrderView, error)
	StatusCounts(ctx context.Context) (map[domain.Status]int64, error)
	Dashboard(ctx context.Context, recentN int) (*application.DashboardSummary, error)
}

// StockAlerter 低库存告警扫描。
type StockAlerter interface {
	Scan(ctx context.Context) ([]alert.StockAlert, error)
}

// OrderHandler 封装了订单核心的 HTTP 处理器
type OrderHandler struct {
	engine  OrderEngine
	alerter StockAlerter
	metrics *metrics.OrderMetrics
	feed    *FeedHub
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例
func NewOrderHandler(engine OrderEngine, alerter StockAlerter, m *metrics.OrderMetrics, feed *FeedHub) *OrderHandler {
	return &OrderHandler{engine: engine, alerter: alerter, metrics: m, feed: feed}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("POST /orders", h.instrument("create_order", h.createOrder))
	mux.HandleFunc("GET /orders", h.instrument("list_orders", h.listOrders))
	mux.HandleFunc("GET /orders/{id}", h.instrument("get_order", h.getOrder))
	mux.HandleFunc("PUT /orders/{id}/status", h.instrument("update_status", h.updateStatus))
	mux.HandleFunc("POST /orders/{id}/cancel", h.instrument("cancel_order", h.cancelOrder))
	mux.HandleFunc("GET /users/{id}/orders", h.instrument("owner_orders", h.ordersForOwner))

	mux.HandleFunc("GET /admin/orders/count", h.instrument("admin_count", h.orderCount))
	mux.HandleFunc("GET /admin/revenue", h.instrument("admin_revenue", h.revenue))
	mux.HandleFunc("GET /admin/orders/recent", h.instrument("admin_recent", h.recentOrders))
	mux.HandleFunc("GET /admin/orders/status-counts", h.instrument("admin_status_counts", h.statusCounts))
	mux.HandleFunc("GET /admin/dashboard", h.instrument("admin_dashboard", h.dashboard))
	mux.HandleFunc("GET /admin/stock-alerts", h.instrument("admin_stock_alerts", h.stockAlerts))

	if h.feed != nil {
		mux.HandleFunc("GET /ws/orders", h.feed.ServeWS)
	}
}

func (h *OrderHandler) instrument(name string, fn http.HandlerFunc) http.HandlerFunc {
	if h.metrics == nil {
		return fn
	}
	return h.metrics.InstrumentHandler(name, fn)
}

// extract 接上游传来的 trace 上下文并开一个本服务的 span。
func extract(r *http.Request, spanName string) (context.Context, func()) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, spanName)
	return ctx, func() { span.End() }
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.CreateOrder")
	defer end()

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// 非空行列表与正数数量是引擎的前置条件，在这一层校验掉
	if req.OwnerID == 0 {
		writeJSONError(w, http.StatusBadRequest, "ownerId is required")
		return
	}
	if len(req.Lines) == 0 {
		writeJSONError(w, http.StatusBadRequest, domain.ErrEmptyOrder.Error())
		return
	}
	for _, l := range req.Lines {
		if l.ProductID == 0 || l.Quantity <= 0 {
			writeJSONError(w, http.StatusBadRequest, "each line needs a productId and a positive quantity")
			return
		}
	}

	view, err := h.engine.CreateOrder(ctx, &req)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.GetOrder")
	defer end()

	view, err := h.engine.GetOrder(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.ListOrders")
	defer end()

	views, err := h.engine.ListAllOrders(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrderHandler) ordersForOwner(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.OrdersForOwner")
	defer end()

	ownerID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	views, err := h.engine.GetOrdersForOwner(ctx, ownerID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.UpdateStatus")
	defer end()

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSONError(w, http.StatusBadRequest, "status is required")
		return
	}
	view, err := h.engine.UpdateStatus(ctx, r.PathValue("id"), req.Status)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.CancelOrder")
	defer end()

	view, err := h.engine.CancelOrder(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) orderCount(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.OrderCount")
	defer end()

	n, err := h.engine.CountOrders(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *OrderHandler) revenue(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.Revenue")
	defer end()

	total, err := h.engine.TotalRevenue(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"totalRevenue": total.StringFixed(2)})
}

func (h *OrderHandler) recentOrders(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.RecentOrders")
	defer end()

	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	views, err := h.engine.RecentOrders(ctx, limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrderHandler) statusCounts(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.StatusCounts")
	defer end()

	counts, err := h.engine.StatusCounts(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		out[string(k)] = v
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.Dashboard")
	defer end()

	summary, err := h.engine.Dashboard(ctx, defaultRecentLimit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *OrderHandler) stockAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, end := extract(r, "http.StockAlerts")
	defer end()

	alerts, err := h.alerter.Scan(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// writeError 把错误分类映射成稳定的 HTTP 状态码。
// 四类业务错误之外的一切都按内部错误处理，细节不外露。
func (h *OrderHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var stockErr *catalogdomain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &stockErr):
		writeJSONError(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("internal error")
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
