// Package domain defines the read-side views served to external
// dashboard and API consumers.
package domain

import (
	"context"
	"time"

	"github.com/invosync/invosync/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

// Stats are the headline figures: year-to-date spend, processed volume
// and the average invoice value.
type Stats struct {
	TotalSpendYTD       decimal.Decimal
	TotalInvoices       int64
	AverageInvoiceValue decimal.Decimal
}

// MonthlyTrend is invoice count and value grouped by issue month.
type MonthlyTrend struct {
	Month        string
	InvoiceCount int64
	TotalValue   decimal.Decimal
}

// VendorSpend is the aggregate invoice total attributed to one vendor.
type VendorSpend struct {
	VendorName string
	TotalSpend decimal.Decimal
}

// CategorySpend is the aggregate line-item amount per category.
type CategorySpend struct {
	Category   string
	TotalSpend decimal.Decimal
}

// CashOutflow is the expected outflow on one upcoming due date.
type CashOutflow struct {
	Date            string
	ExpectedOutflow decimal.Decimal
}

// InvoiceRow is one listing entry with party names joined in.
type InvoiceRow struct {
	ID            int64
	InvoiceNumber *string
	VendorName    *string
	CustomerName  *string
	IssueDate     *time.Time
	DueDate       *time.Time
	Currency      string
	Total         *decimal.Decimal
	Status        string
}

// VendorRow is one vendor listing entry with its invoice volume.
type VendorRow struct {
	ID           int64
	Name         string
	InvoiceCount int64
	TotalSpend   decimal.Decimal
}

// InvoiceFilter narrows the invoice listing.
type InvoiceFilter struct {
	// Search matches invoice numbers and vendor names case-insensitively.
	Search string
	Status string
}

// Service exposes the find/aggregate operations over the normalized
// store.
type Service interface {
	Stats(ctx context.Context) (Stats, error)
	MonthlyTrends(ctx context.Context) ([]MonthlyTrend, error)
	TopVendors(ctx context.Context, limit int) ([]VendorSpend, error)
	CategorySpend(ctx context.Context) ([]CategorySpend, error)
	CashOutflow(ctx context.Context, days int) ([]CashOutflow, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter, page pagination.Pagination) ([]InvoiceRow, error)
	ListVendors(ctx context.Context, page pagination.Pagination) ([]VendorRow, error)
}
