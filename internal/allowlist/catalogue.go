package allowlist

// newCatalogue returns the compiled-in template set. Every SQL statement
// is SELECT-only (or WITH … SELECT), carries exactly one statement, and
// binds every value by name — never by string concatenation.
func newCatalogue() map[string]Template {
	templates := []Template{
		{
			ID:          "kpi_sales_summary",
			Description: "Resumen de KPIs de ventas (total, cantidad, promedio) — solo ordenes pagadas",
			SQL: `
				SELECT
					COALESCE(SUM(total_amount), 0) AS total_sales,
					COUNT(*) AS total_orders,
					COALESCE(AVG(total_amount), 0) AS avg_order_value,
					COALESCE(SUM(quantity), 0) AS total_units
				FROM ml_orders
				WHERE status = 'paid'
				  AND date_created >= @date_from
				  AND date_created < @date_to
			`,
			RequiredParams: []string{"date_from", "date_to"},
			DefaultParams: map[string]func() any{
				"date_from": days(395),
				"date_to":   func() any { return isoDateDaysAgo(-1) },
			},
			OutputType: OutputKPI,
			OutputRef:  "kpi",
		},
		{
			ID:          "ts_sales_by_day",
			Description: "Ventas agrupadas por dia para grafico de linea",
			SQL: `
				SELECT
					DATE(date_created) AS date,
					SUM(total_amount) AS value,
					COUNT(*) AS order_count
				FROM ml_orders
				WHERE date_created >= @date_from
				  AND date_created < @date_to
				GROUP BY DATE(date_created)
				ORDER BY date ASC
				LIMIT @limit
			`,
			RequiredParams: []string{"date_from", "date_to"},
			DefaultParams: map[string]func() any{
				"date_from": days(30),
				"date_to":   today(),
				"limit":     constant(31),
			},
			OutputType: OutputTimeSeries,
			OutputRef:  "sales_by_day",
		},
		{
			ID:          "sales_by_month",
			Description: "Ventas agrupadas por mes para analisis de estacionalidad",
			SQL: `
				SELECT
					TO_CHAR(date_created, 'YYYY-MM') AS date,
					SUM(total_amount) AS value,
					COUNT(*) AS order_count
				FROM ml_orders
				WHERE status = 'paid'
				  AND date_created >= @date_from
				  AND date_created < @date_to
				GROUP BY TO_CHAR(date_created, 'YYYY-MM')
				ORDER BY date ASC
				LIMIT @limit
			`,
			RequiredParams: []string{"date_from", "date_to"},
			DefaultParams: map[string]func() any{
				"date_from": days(395),
				"date_to":   func() any { return isoDateDaysAgo(-1) },
				"limit":     constant(13),
			},
			OutputType: OutputTimeSeries,
			OutputRef:  "sales_by_month",
		},
		{
			ID:          "top_products_by_revenue",
			Description: "Top productos ordenados por ingresos en un periodo de tiempo",
			SQL: `
				SELECT
					ROW_NUMBER() OVER (ORDER BY SUM(o.total_amount) DESC) AS rank,
					o.item_id AS id,
					i.title,
					SUM(o.total_amount) AS value,
					SUM(o.quantity) AS units_sold
				FROM ml_orders o
				LEFT JOIN ml_items i ON o.item_id = i.item_id
				WHERE o.status = 'paid'
				  AND o.date_created >= @date_from
				  AND o.date_created < @date_to
				GROUP BY o.item_id, i.title
				ORDER BY value DESC
				LIMIT @limit
			`,
			RequiredParams: []string{"date_from", "date_to"},
			DefaultParams: map[string]func() any{
				"date_from": days(30),
				"date_to":   func() any { return isoDateDaysAgo(-1) },
				"limit":     constant(10),
			},
			OutputType: OutputTopItems,
			OutputRef:  "products_by_revenue",
		},
		{
			ID:          "recent_orders",
			Description: "Ultimas ordenes para mostrar en tabla",
			SQL: `
				SELECT
					order_id AS id,
					buyer_nickname,
					item_title,
					total_amount,
					quantity,
					status,
					shipping_status,
					date_created
				FROM ml_orders
				ORDER BY date_created DESC
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(20),
			},
			OutputType: OutputTable,
			OutputRef:  "recent_orders",
		},
		{
			ID:          "sales_by_channel",
			Description: "Ventas agrupadas por canal de envio",
			SQL: `
				SELECT
					ROW_NUMBER() OVER (ORDER BY SUM(total_amount) DESC) AS rank,
					COALESCE(shipping_type, 'direct') AS id,
					COALESCE(shipping_type, 'direct') AS title,
					SUM(total_amount) AS value,
					COUNT(*) AS order_count
				FROM ml_orders
				WHERE date_created >= @date_from
				  AND date_created < @date_to
				GROUP BY shipping_type
				ORDER BY value DESC
				LIMIT @limit
			`,
			RequiredParams: []string{"date_from", "date_to"},
			DefaultParams: map[string]func() any{
				"date_from": days(30),
				"date_to":   today(),
				"limit":     constant(10),
			},
			OutputType: OutputTopItems,
			OutputRef:  "sales_by_channel",
		},
		{
			ID:          "products_low_stock",
			Description: "Productos con stock bajo (menos de 10 unidades)",
			SQL: `
				SELECT
					item_id AS id,
					title,
					sku,
					price,
					available_quantity AS stock,
					status
				FROM ml_items
				WHERE available_quantity < 10
				  AND status = 'active'
				ORDER BY available_quantity ASC
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(20),
			},
			OutputType: OutputTable,
			OutputRef:  "products_low_stock",
		},
		{
			ID:          "stock_alerts",
			Description: "Alertas de stock critico y productos a reponer",
			SQL: `
				SELECT
					item_id AS id,
					title,
					available_quantity AS stock,
					days_cover,
					severity,
					reorder_date
				FROM v_stock_dashboard
				WHERE severity IN ('critical', 'warning')
				ORDER BY severity DESC, days_cover ASC
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(20),
			},
			OutputType: OutputTable,
			OutputRef:  "stock_alerts",
		},
		{
			ID:          "kpi_inventory_summary",
			Description: "Resumen de inventario por severidad de stock (critico, advertencia, ok)",
			SQL: `
				SELECT
					COUNT(*) FILTER (WHERE severity = 'critical') AS critical_count,
					COUNT(*) FILTER (WHERE severity = 'warning') AS warning_count,
					COUNT(*) FILTER (WHERE severity = 'ok') AS ok_count,
					COUNT(*) AS total_products
				FROM v_stock_dashboard
			`,
			RequiredParams: nil,
			DefaultParams:  map[string]func() any{},
			OutputType:     OutputKPI,
			OutputRef:      "inventory",
		},
		{
			ID:          "stock_reorder_analysis",
			Description: "Productos que requieren reposicion, ordenados por urgencia",
			SQL: `
				SELECT
					item_id AS id,
					title,
					available_quantity AS stock,
					days_cover,
					reorder_date,
					severity
				FROM v_stock_dashboard
				WHERE reorder_date IS NOT NULL
				ORDER BY days_cover ASC
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(20),
			},
			OutputType: OutputTable,
			OutputRef:  "stock_reorder_analysis",
		},
		{
			ID:          "ai_interactions_summary",
			Description: "Resumen de interacciones del agente AI (total, escaladas, por tipo)",
			SQL: `
				SELECT
					COALESCE(conv.total_interactions, 0) AS total_interactions,
					COALESCE(esc.escalated_count, 0) AS escalated_count,
					COALESCE(ROUND(esc.escalated_count::numeric / NULLIF(conv.total_interactions, 0) * 100, 1), 0) AS escalation_rate,
					COALESCE(conv.total_interactions, 0) - COALESCE(esc.escalated_count, 0) AS auto_responded
				FROM
					(SELECT COUNT(*) AS total_interactions FROM conversations) conv,
					(SELECT COUNT(*) AS escalated_count FROM escalations) esc
			`,
			RequiredParams: nil,
			DefaultParams:  map[string]func() any{},
			OutputType:     OutputKPI,
			OutputRef:      "ai_interactions",
		},
		{
			ID:          "escalated_cases",
			Description: "Casos escalados a humano con motivo",
			SQL: `
				SELECT
					id,
					buyer_nickname,
					buyer_message,
					reason,
					case_type,
					status,
					priority,
					source,
					created_at
				FROM escalations
				ORDER BY created_at DESC
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(20),
			},
			OutputType: OutputTable,
			OutputRef:  "escalated_cases",
		},
		{
			ID:          "recent_ai_interactions",
			Description: "Ultimas interacciones del agente AI con compradores",
			SQL: `
				SELECT
					id,
					buyer_nickname,
					status,
					case_type,
					last_message_at
				FROM conversations
				ORDER BY last_message_at DESC
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(20),
			},
			OutputType: OutputTable,
			OutputRef:  "recent_ai_interactions",
		},
		{
			ID:          "interactions_by_case_type",
			Description: "Interacciones agrupadas por tipo de caso",
			SQL: `
				SELECT
					ROW_NUMBER() OVER (ORDER BY COUNT(*) DESC) AS rank,
					COALESCE(case_type, 'sin_tipo') AS id,
					INITCAP(REPLACE(COALESCE(case_type, 'sin_tipo'), '_', ' ')) AS title,
					COUNT(*) AS value
				FROM escalations
				GROUP BY case_type
				ORDER BY value DESC
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(10),
			},
			OutputType: OutputTopItems,
			OutputRef:  "interactions_by_case_type",
		},
		{
			ID:          "products_inventory",
			Description: "Inventario completo de productos con stock y precios",
			SQL: `
				SELECT
					item_id AS id,
					title,
					sku,
					price,
					available_quantity AS stock,
					status,
					total_sold
				FROM ml_items
				ORDER BY available_quantity DESC
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(50),
			},
			OutputType: OutputTable,
			OutputRef:  "products_inventory",
		},
		{
			ID:          "top_products_by_sales",
			Description: "Top productos por unidades vendidas (historico, no acotado por fecha)",
			SQL: `
				SELECT
					ROW_NUMBER() OVER (ORDER BY total_sold DESC NULLS LAST) AS rank,
					item_id AS id,
					title,
					total_sold AS value,
					total_sold AS units_sold
				FROM ml_items
				ORDER BY total_sold DESC NULLS LAST
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(10),
			},
			OutputType: OutputTopItems,
			OutputRef:  "products_by_sales",
		},
		{
			ID:          "preventa_summary",
			Description: "Resumen de consultas de preventa (total, respondidas, pendientes)",
			SQL: `
				SELECT
					COUNT(*) AS total_queries,
					COUNT(*) FILTER (WHERE status = 'answered') AS answered,
					COUNT(*) FILTER (WHERE status = 'pending') AS pending,
					COALESCE(
						ROUND(COUNT(*) FILTER (WHERE status = 'answered')::numeric / NULLIF(COUNT(*), 0) * 100, 1),
						0
					) AS answer_rate
				FROM preventa_queries
			`,
			RequiredParams: nil,
			DefaultParams:  map[string]func() any{},
			OutputType:     OutputKPI,
			OutputRef:      "preventa",
		},
		{
			ID:          "recent_preventa_queries",
			Description: "Ultimas preguntas de preventa de compradores",
			SQL: `
				SELECT
					id,
					buyer_nickname,
					question,
					status,
					created_at
				FROM preventa_queries
				ORDER BY created_at DESC
				LIMIT @limit
			`,
			RequiredParams: nil,
			DefaultParams: map[string]func() any{
				"limit": constant(20),
			},
			OutputType: OutputTable,
			OutputRef:  "recent_preventa",
		},
	}

	catalogue := make(map[string]Template, len(templates))
	for _, t := range templates {
		catalogue[t.ID] = t
	}
	return catalogue
}
