package reports

import "github.com/shopspring/decimal"

// Dashboard is the read model behind GET /api/reportes/dashboard.
type Dashboard struct {
	SalesToday     decimal.Decimal `json:"ventas_hoy"`
	SalesMonth     decimal.Decimal `json:"ventas_mes"`
	LowStockCount  int64           `json:"stock_bajo_count"`
	ActiveProducts int64           `json:"total_productos"`
	TopProducts    []TopProduct    `json:"top_productos"`
	StockAlerts    []StockAlert    `json:"alertas_inventario"`
}

// TopProduct is a best seller by units.
type TopProduct struct {
	Name     string          `json:"nombre"`
	Quantity int64           `json:"cantidad"`
	Total    decimal.Decimal `json:"total"`
}

// StockAlert is a medication at or below its reorder threshold.
type StockAlert struct {
	Name          string `json:"nombre"`
	StockQuantity int    `json:"stock_actual"`
	MinimumStock  int    `json:"stock_minimo"`
}
