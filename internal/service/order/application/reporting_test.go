// internal/service/order/application/reporting_test.go
package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emporium/internal/service/order/domain"
)

// 铺一批覆盖各状态的订单。
func seedReportingState() *memState {
	st := seedState()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	add := func(i int, status domain.Status, total string) {
		id := fmt.Sprintf("ord-%02d", i)
		st.orders[id] = &domain.Order{
			ID:          id,
			UserID:      1,
			OrderDate:   base.Add(time.Duration(i) * time.Hour),
			Status:      status,
			TotalAmount: money(total),
		}
	}
	add(1, domain.StatusPending, "10.00")
	add(2, domain.StatusProcessing, "20.00")
	add(3, domain.StatusShipped, "100.50")
	add(4, domain.StatusShipped, "200.00")
	add(5, domain.StatusDelivered, "49.45")
	add(6, domain.StatusCancelled, "999.00")
	return st
}

func TestCountOrders(t *testing.T) {
	svc, _ := testEngine(seedReportingState())
	n, err := svc.CountOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}

// 营收只计 SHIPPED + DELIVERED，取消的大单不计入。
func TestTotalRevenue(t *testing.T) {
	svc, _ := testEngine(seedReportingState())
	revenue, err := svc.TotalRevenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "349.95", revenue.StringFixed(2))
}

func TestTotalRevenueEmpty(t *testing.T) {
	svc, _ := testEngine(seedState())
	revenue, err := svc.TotalRevenue(context.Background())
	require.NoError(t, err)
	assert.True(t, revenue.IsZero())
}

func TestRecentOrders(t *testing.T) {
	svc, _ := testEngine(seedReportingState())

	views, err := svc.RecentOrders(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "ord-06", views[0].ID)
	assert.Equal(t, "ord-05", views[1].ID)
	assert.Equal(t, "ord-04", views[2].ID)

	// n 大于订单总数时返回全部
	views, err = svc.RecentOrders(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, views, 6)
}

func TestListAllOrders(t *testing.T) {
	svc, _ := testEngine(seedReportingState())
	views, err := svc.ListAllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 6)
	assert.Equal(t, "ord-06", views[0].ID, "newest first")
	assert.Equal(t, "ord-01", views[5].ID)
}

// 没有订单的状态也出现在结果里，计数为零。
func TestStatusCountsZeroFilled(t *testing.T) {
	svc, _ := testEngine(seedReportingState())
	counts, err := svc.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[domain.Status]int64{
		domain.StatusPending:    1,
		domain.StatusProcessing: 1,
		domain.StatusShipped:    2,
		domain.StatusDelivered:  1,
		domain.StatusCancelled:  1,
	}, counts)

	empty, _ := testEngine(seedState())
	counts, err = empty.StatusCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 5)
	for status, n := range counts {
		assert.Zero(t, n, "status=%s", status)
	}
}

func TestDashboard(t *testing.T) {
	svc, _ := testEngine(seedReportingState())
	summary, err := svc.Dashboard(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, int64(6), summary.OrderCount)
	assert.Equal(t, "349.95", summary.TotalRevenue)
	assert.Equal(t, int64(2), summary.StatusCounts["SHIPPED"])
	assert.Equal(t, int64(1), summary.StatusCounts["CANCELLED"])
	require.Len(t, summary.RecentOrders, 2)
	assert.Equal(t, "ord-06", summary.RecentOrders[0].ID)
}
