package models

import "time"

// Material is a raw material tracked in inventory. Field casing in JSON
// matches the wire format consumed by the inventory frontends.
type Material struct {
	ID          int64       `json:"MaterialID"`
	Name        string      `json:"MaterialName"`
	Quantity    float64     `json:"MaterialQuantity"`
	Measurement string      `json:"MaterialMeasurement"`
	DateAdded   DateOnly    `json:"DateAdded"`
	Status      StockStatus `json:"Status"`
}

// MaterialInput carries the client-supplied fields for creating or replacing
// a material. Status is always derived server-side.
type MaterialInput struct {
	Name        string   `json:"MaterialName" binding:"required"`
	Quantity    float64  `json:"MaterialQuantity"`
	Measurement string   `json:"MaterialMeasurement" binding:"required"`
	DateAdded   DateOnly `json:"DateAdded" binding:"required"`
}

// StockStatusCounts tallies materials per stock status.
type StockStatusCounts struct {
	Available    int64 `json:"available"`
	LowStock     int64 `json:"low_stock"`
	NotAvailable int64 `json:"not_available"`
}

// LowStockAlert is the dashboard entry for a material in Low Stock.
type LowStockAlert struct {
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	InStock       float64    `json:"inStock"`
	ReorderLevel  float64    `json:"reorderLevel"`
	LastRestocked *time.Time `json:"lastRestocked"`
	Status        string     `json:"status"`
}

// SoldItem is one product line in a completed sale.
type SoldItem struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// DeductSaleRequest is the payload sent by the point of sale after checkout.
type DeductSaleRequest struct {
	CartItems []SoldItem `json:"cartItems" binding:"required"`
}
