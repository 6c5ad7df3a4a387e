package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unityshop-backend/models"
)

func orderAt(created time.Time, status string, amount float64) models.Order {
	return models.Order{Status: status, AmountPaid: amount, CreatedAt: created}
}

func TestStatusCounts(t *testing.T) {
	orders := []models.Order{
		{Status: models.OrderStatusNew},
		{Status: models.OrderStatusNew},
		{Status: models.OrderStatusShipped},
		{Status: models.OrderStatusDelivered},
		{Status: ""}, // legacy documents without a status count as New
	}

	counts := statusCounts(orders)

	assert.Equal(t, 3, counts[models.OrderStatusNew])
	assert.Equal(t, 1, counts[models.OrderStatusShipped])
	assert.Equal(t, 1, counts[models.OrderStatusDelivered])
	assert.Equal(t, 0, counts[models.OrderStatusCancelled])
}

func TestTotalRevenue(t *testing.T) {
	orders := []models.Order{
		{AmountPaid: 49.99},
		{AmountPaid: 25.50},
		{AmountPaid: 0},
	}
	assert.InDelta(t, 75.49, totalRevenue(orders), 1e-9)

	assert.Zero(t, totalRevenue(nil))
}

func TestLast7Days(t *testing.T) {
	// Fixed reference point so the buckets are deterministic.
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC) // a Saturday

	orders := []models.Order{
		orderAt(time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC), models.OrderStatusNew, 10),
		orderAt(time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC), models.OrderStatusNew, 15),
		orderAt(time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC), models.OrderStatusShipped, 30),
		orderAt(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), models.OrderStatusNew, 5),  // first bucket, midnight boundary
		orderAt(time.Date(2024, 6, 8, 23, 59, 0, 0, time.UTC), models.OrderStatusNew, 99), // day before the window
		orderAt(time.Date(2024, 6, 16, 1, 0, 0, 0, time.UTC), models.OrderStatusNew, 99),  // day after the window
	}

	stats := last7Days(orders, now)
	require.Len(t, stats, 7)

	assert.Equal(t, "2024-06-09", stats[0].Date)
	assert.Equal(t, "Sun", stats[0].Day)
	assert.Equal(t, 1, stats[0].Orders)
	assert.Equal(t, 5.0, stats[0].Revenue)

	assert.Equal(t, "2024-06-12", stats[3].Date)
	assert.Equal(t, 1, stats[3].Orders)
	assert.Equal(t, 30.0, stats[3].Revenue)

	assert.Equal(t, "2024-06-15", stats[6].Date)
	assert.Equal(t, "Sat", stats[6].Day)
	assert.Equal(t, 2, stats[6].Orders)
	assert.Equal(t, 25.0, stats[6].Revenue)

	// Days with no orders are present with zero values.
	assert.Equal(t, 0, stats[1].Orders)
	assert.Zero(t, stats[1].Revenue)
}

func TestLast7DaysEmpty(t *testing.T) {
	stats := last7Days(nil, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	require.Len(t, stats, 7)
	for _, s := range stats {
		assert.Zero(t, s.Orders)
		assert.Zero(t, s.Revenue)
	}
}
