package models

import "strings"

// StockStatus labels a material's availability.
type StockStatus string

const (
	// StockAvailable means the quantity is above the low stock threshold.
	StockAvailable StockStatus = "Available"
	// StockLow means the quantity is at or below the threshold for its unit.
	StockLow StockStatus = "Low Stock"
	// StockNotAvailable means the quantity is zero or negative.
	StockNotAvailable StockStatus = "Not Available"
)

// LowStockThresholds maps measurement units to their low stock cutoffs.
// Units not listed fall back to DefaultLowStockThreshold.
var LowStockThresholds = map[string]float64{
	"pcs":  10,
	"box":  5,
	"pack": 5,
}

// DefaultLowStockThreshold applies to measurement units without a specific
// threshold.
const DefaultLowStockThreshold = 1

// DeriveStockStatus computes the stock status for a quantity and measurement
// unit. Measurement comparison is case-insensitive.
func DeriveStockStatus(quantity float64, measurement string) StockStatus {
	if quantity <= 0 {
		return StockNotAvailable
	}
	threshold, ok := LowStockThresholds[strings.ToLower(measurement)]
	if !ok {
		threshold = DefaultLowStockThreshold
	}
	if quantity <= threshold {
		return StockLow
	}
	return StockAvailable
}
