package providers

import (
	"time"

	"github.com/tablecraft/integration-hub/internal/analytics"
)

// The shared GetAnalytics implementations. Every provider maps its raw
// payloads into the normalized records, then calls one of these; no
// provider carries its own aggregation code.

// AggregatePOS computes the POS summary over transactions, bucketing hours
// in loc (UTC when nil).
func AggregatePOS(transactions []POSTransaction, loc *time.Location) *analytics.POSAnalytics {
	totalSales := analytics.SumBy(transactions, func(t POSTransaction) float64 { return t.Amount })

	return &analytics.POSAnalytics{
		TotalSales:        totalSales,
		TotalTransactions: len(transactions),
		AverageTicket:     analytics.SafeAverage(totalSales, len(transactions)),
		TopItems: analytics.TopItems(transactions, func(t POSTransaction) []analytics.LineItem {
			items := make([]analytics.LineItem, len(t.Items))
			for i, it := range t.Items {
				items[i] = analytics.LineItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
			}
			return items
		}, true),
		SalesByHour: analytics.HourBuckets(transactions,
			func(t POSTransaction) time.Time { return t.Timestamp },
			func(t POSTransaction) float64 { return t.Amount },
			loc),
		PaymentMethods: analytics.PaymentMethods(transactions,
			func(t POSTransaction) string { return t.PaymentMethod },
			func(t POSTransaction) float64 { return t.Amount }),
	}
}

// AggregateDelivery computes the delivery summary over orders. Delivery
// top items rank by quantity, not revenue.
func AggregateDelivery(orders []DeliveryOrder) *analytics.DeliveryAnalytics {
	totalRevenue := analytics.SumBy(orders, func(o DeliveryOrder) float64 { return o.Total })

	return &analytics.DeliveryAnalytics{
		TotalOrders:       len(orders),
		TotalRevenue:      totalRevenue,
		AverageOrderValue: analytics.SafeAverage(totalRevenue, len(orders)),
		TopItems: analytics.TopItems(orders, func(o DeliveryOrder) []analytics.LineItem {
			items := make([]analytics.LineItem, len(o.Items))
			for i, it := range o.Items {
				items[i] = analytics.LineItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
			}
			return items
		}, false),
	}
}

// AggregateReservations computes the reservation summary, bucketing hours
// in loc (UTC when nil).
func AggregateReservations(reservations []Reservation, loc *time.Location) *analytics.ReservationAnalytics {
	var confirmed, cancelled, noShows, totalGuests int
	for _, r := range reservations {
		switch r.Status {
		case ReservationConfirmed:
			confirmed++
		case ReservationCancelled:
			cancelled++
		case ReservationNoShow:
			noShows++
		}
		totalGuests += r.PartySize
	}

	byHour := analytics.HourBuckets(reservations,
		func(r Reservation) time.Time { return r.DateTime },
		func(r Reservation) float64 { return 0 },
		loc)

	return &analytics.ReservationAnalytics{
		TotalReservations:     len(reservations),
		ConfirmedReservations: confirmed,
		CancelledReservations: cancelled,
		NoShows:               noShows,
		AveragePartySize:      analytics.SafeAverage(float64(totalGuests), len(reservations)),
		ReservationsByHour:    byHour,
		PeakHours:             analytics.PeakHours(byHour),
	}
}
