// Package analytics computes the dashboard rollups over normalized
// integration records: scalar totals and averages, top-N item rankings,
// hour bucketing, and payment-method breakdowns.
//
// Every function here is pure and total: empty input yields zero scalars and
// empty (non-nil) slices, so callers always get a renderable shape. Hour
// series are sorted chronologically; peak-hour views are an explicit top-N
// by count, sorted descending.
package analytics

import (
	"sort"
	"time"
)

// TopN is how many entries item rankings and peak-hour views are truncated to.
const TopN = 10

// ItemStat is one entry in a top-items ranking.
type ItemStat struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// HourBucket accumulates activity for one hour of day (0-23) in the
// restaurant's local timezone.
type HourBucket struct {
	Hour   int     `json:"hour"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// PaymentMethodStat accumulates transactions for one raw payment-method
// string. Method values are provider-specific and not reconciled across
// platforms.
type PaymentMethodStat struct {
	Method string  `json:"method"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// POSAnalytics is the summary rendered by the POS dashboard widgets.
type POSAnalytics struct {
	TotalSales        float64             `json:"total_sales"`
	TotalTransactions int                 `json:"total_transactions"`
	AverageTicket     float64             `json:"average_ticket"`
	TopItems          []ItemStat          `json:"top_items"`
	SalesByHour       []HourBucket        `json:"sales_by_hour"`
	PaymentMethods    []PaymentMethodStat `json:"payment_methods"`
}

// DeliveryAnalytics is the summary rendered by the delivery widgets.
type DeliveryAnalytics struct {
	TotalOrders       int        `json:"total_orders"`
	TotalRevenue      float64    `json:"total_revenue"`
	AverageOrderValue float64    `json:"average_order_value"`
	TopItems          []ItemStat `json:"top_items"`
}

// ReservationAnalytics is the summary rendered by the reservation widgets.
type ReservationAnalytics struct {
	TotalReservations     int          `json:"total_reservations"`
	ConfirmedReservations int          `json:"confirmed_reservations"`
	CancelledReservations int          `json:"cancelled_reservations"`
	NoShows               int          `json:"no_shows"`
	AveragePartySize      float64      `json:"average_party_size"`
	ReservationsByHour    []HourBucket `json:"reservations_by_hour"`
	PeakHours             []HourBucket `json:"peak_hours"`
}

// LineItem is the accessor view of one line item, shared by POS transaction
// items and delivery order items.
type LineItem struct {
	Name     string
	Quantity int
	Price    float64
}

// SafeAverage returns sum/count, or 0 when count is 0.
func SafeAverage(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// TopItems ranks line items across all records by the given metric,
// truncated to TopN. Revenue per item is quantity*price summed across
// records; ties keep first-seen order.
func TopItems[T any](records []T, items func(T) []LineItem, byRevenue bool) []ItemStat {
	type acc struct {
		stat  ItemStat
		order int
	}
	byName := make(map[string]*acc)
	for _, rec := range records {
		for _, it := range items(rec) {
			a, ok := byName[it.Name]
			if !ok {
				a = &acc{stat: ItemStat{Name: it.Name}, order: len(byName)}
				byName[it.Name] = a
			}
			a.stat.Quantity += it.Quantity
			a.stat.Revenue += float64(it.Quantity) * it.Price
		}
	}

	ranked := make([]*acc, 0, len(byName))
	for _, a := range byName {
		ranked = append(ranked, a)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if byRevenue {
			if ranked[i].stat.Revenue != ranked[j].stat.Revenue {
				return ranked[i].stat.Revenue > ranked[j].stat.Revenue
			}
		} else {
			if ranked[i].stat.Quantity != ranked[j].stat.Quantity {
				return ranked[i].stat.Quantity > ranked[j].stat.Quantity
			}
		}
		return ranked[i].order < ranked[j].order
	})

	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}
	out := make([]ItemStat, len(ranked))
	for i, a := range ranked {
		out[i] = a.stat
	}
	return out
}

// HourBuckets groups records by hour of day in loc, accumulating count and
// amount. Hours with no records are omitted; output is chronological.
func HourBuckets[T any](records []T, at func(T) time.Time, amount func(T) float64, loc *time.Location) []HourBucket {
	if loc == nil {
		loc = time.UTC
	}
	byHour := make(map[int]*HourBucket)
	for _, rec := range records {
		h := at(rec).In(loc).Hour()
		b, ok := byHour[h]
		if !ok {
			b = &HourBucket{Hour: h}
			byHour[h] = b
		}
		b.Count++
		b.Amount += amount(rec)
	}

	out := make([]HourBucket, 0, len(byHour))
	for _, b := range byHour {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// PeakHours returns the TopN busiest hour buckets by count, descending.
// Ties break toward the earlier hour.
func PeakHours(buckets []HourBucket) []HourBucket {
	out := make([]HourBucket, len(buckets))
	copy(out, buckets)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

// PaymentMethods groups records by raw payment-method string, accumulating
// count and amount, sorted descending by amount.
func PaymentMethods[T any](records []T, method func(T) string, amount func(T) float64) []PaymentMethodStat {
	type acc struct {
		stat  PaymentMethodStat
		order int
	}
	byMethod := make(map[string]*acc)
	for _, rec := range records {
		m := method(rec)
		a, ok := byMethod[m]
		if !ok {
			a = &acc{stat: PaymentMethodStat{Method: m}, order: len(byMethod)}
			byMethod[m] = a
		}
		a.stat.Count++
		a.stat.Amount += amount(rec)
	}

	ranked := make([]*acc, 0, len(byMethod))
	for _, a := range byMethod {
		ranked = append(ranked, a)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].stat.Amount != ranked[j].stat.Amount {
			return ranked[i].stat.Amount > ranked[j].stat.Amount
		}
		return ranked[i].order < ranked[j].order
	})

	out := make([]PaymentMethodStat, len(ranked))
	for i, a := range ranked {
		out[i] = a.stat
	}
	return out
}

// SumBy totals amount over all records.
func SumBy[T any](records []T, amount func(T) float64) float64 {
	var total float64
	for _, rec := range records {
		total += amount(rec)
	}
	return total
}
