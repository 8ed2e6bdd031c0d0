package relstore

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// fakeStore serves deterministic, plausible rows without a database
// connection, for DEMO_MODE and for tests that exercise the Data
// Executor without a live Postgres instance. It keys its canned
// responses off shape, not off the specific allowlist id, since the
// id isn't available at this layer — the executor passes the SQL, not
// the template.
type fakeStore struct{ seed int64 }

// NewFake returns a Store that fabricates rows shaped like the real
// catalogue's outputs, for DEMO_MODE deployments with no database.
func NewFake() Store {
	return &fakeStore{seed: time.Now().UnixNano()}
}

func (f *fakeStore) Query(_ context.Context, sql string, params map[string]any) ([]Row, error) {
	switch {
	case containsAll(sql, "total_sales", "total_orders"):
		return []Row{{
			"total_sales":     184230.50,
			"total_orders":    int64(412),
			"avg_order_value": 447.16,
			"total_units":     int64(980),
		}}, nil

	case containsAll(sql, "DATE(date_created)", "order_count"):
		return f.timeSeries(params, "date_created")

	case containsAll(sql, "TO_CHAR(date_created", "order_count"):
		return f.timeSeries(params, "month")

	case containsAll(sql, "ROW_NUMBER()", "item_id", "title"):
		return f.topItems(params)

	case containsAll(sql, "buyer_nickname", "item_title"):
		return f.orders(params)

	case containsAll(sql, "shipping_type"):
		return []Row{
			{"rank": int64(1), "id": "flex", "title": "flex", "value": 92100.0, "order_count": int64(180)},
			{"rank": int64(2), "id": "direct", "title": "direct", "value": 54300.0, "order_count": int64(120)},
		}, nil

	case containsAll(sql, "available_quantity", "sku"):
		return []Row{
			{"id": "MLA1", "title": "Producto A", "sku": "SKU-A", "price": 1200.0, "stock": int64(3), "status": "active"},
			{"id": "MLA2", "title": "Producto B", "sku": "SKU-B", "price": 800.0, "stock": int64(7), "status": "active"},
		}, nil

	case containsAll(sql, "FILTER (WHERE severity"):
		return []Row{{
			"critical_count": int64(4),
			"warning_count":  int64(11),
			"ok_count":       int64(85),
			"total_products": int64(100),
		}}, nil

	case containsAll(sql, "reorder_date IS NOT NULL"):
		return []Row{
			{"id": "MLA1", "title": "Producto A", "stock": int64(3), "days_cover": 2.5, "reorder_date": isoToday(), "severity": "critical"},
		}, nil

	case containsAll(sql, "v_stock_dashboard", "days_cover", "severity"):
		return []Row{
			{"id": "MLA1", "title": "Producto A", "stock": int64(3), "days_cover": 2.5, "severity": "critical", "reorder_date": isoToday()},
			{"id": "MLA3", "title": "Producto C", "stock": int64(9), "days_cover": 6.0, "severity": "warning", "reorder_date": nil},
		}, nil

	case containsAll(sql, "total_interactions", "escalated_count"):
		return []Row{{
			"total_interactions": int64(340),
			"escalated_count":    int64(28),
			"escalation_rate":    8.2,
			"auto_responded":     int64(312),
		}}, nil

	case containsAll(sql, "buyer_message", "case_type"):
		return []Row{
			{"id": int64(1), "buyer_nickname": "comprador1", "buyer_message": "No llego mi pedido", "reason": "shipping_delay", "case_type": "shipping", "status": "open", "priority": "high", "source": "chat", "created_at": isoToday()},
		}, nil

	default:
		return []Row{}, nil
	}
}

func (f *fakeStore) timeSeries(params map[string]any, kind string) ([]Row, error) {
	n := 7
	if kind == "month" {
		n = 6
	}
	if lim, ok := params["limit"].(int); ok && lim > 0 && lim < n {
		n = lim
	}

	out := make([]Row, 0, n)
	base := 12000.0
	for i := 0; i < n; i++ {
		date := time.Now().UTC().AddDate(0, 0, -n+i+1).Format("2006-01-02")
		if kind == "month" {
			date = time.Now().UTC().AddDate(0, -n+i+1, 0).Format("2006-01")
		}
		value := base + math.Mod(float64(i*937), 4000)
		out = append(out, Row{"date": date, "value": value, "order_count": int64(10 + i)})
	}
	return out, nil
}

func (f *fakeStore) topItems(params map[string]any) ([]Row, error) {
	n := 5
	if lim, ok := params["limit"].(int); ok && lim > 0 && lim < n {
		n = lim
	}
	out := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Row{
			"rank":       int64(i + 1),
			"id":         fmt.Sprintf("MLA%d", 100+i),
			"title":      fmt.Sprintf("Producto demo %d", i+1),
			"value":      20000.0 - float64(i)*1500,
			"units_sold": int64(80 - i*5),
		})
	}
	return out, nil
}

func (f *fakeStore) orders(params map[string]any) ([]Row, error) {
	n := 5
	if lim, ok := params["limit"].(int); ok && lim > 0 && lim < n {
		n = lim
	}
	out := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Row{
			"id":              int64(900 + i),
			"buyer_nickname":  fmt.Sprintf("comprador%d", i+1),
			"item_title":      fmt.Sprintf("Producto demo %d", i+1),
			"total_amount":    1500.0 + float64(i)*250,
			"quantity":        int64(1 + i%3),
			"status":          "paid",
			"shipping_status": "delivered",
			"date_created":    time.Now().UTC().AddDate(0, 0, -i).Format(time.RFC3339),
		})
	}
	return out, nil
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func isoToday() string {
	return time.Now().UTC().Format("2006-01-02")
}
