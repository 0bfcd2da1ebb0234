// Package domain contains persistence models for normalized invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// StatusProcessed is assigned when the source record carries no status.
const StatusProcessed = "processed"

// Invoice is the normalized invoice header. Identity is invoice_ref when
// present, else invoice_number; records carrying neither are stored as
// new rows on every sighting.
type Invoice struct {
	ID            snowflake.ID     `gorm:"primaryKey"`
	InvoiceNumber *string          `gorm:"uniqueIndex"`
	InvoiceRef    *string          `gorm:"uniqueIndex"`
	VendorID      *snowflake.ID    `gorm:"index"`
	CustomerID    *snowflake.ID    `gorm:"index"`
	IssueDate     *time.Time       `gorm:"index"`
	DueDate       *time.Time       `gorm:"index"`
	Currency      string           `gorm:"type:text;not null"`
	Subtotal      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Tax           *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Total         *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Status        string           `gorm:"type:text;not null;default:'processed'"`
	Notes         *string          `gorm:"type:text"`
	Raw           datatypes.JSON   `gorm:"type:jsonb"`
	CreatedAt     time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// LineItem is one position on an invoice. Line items carry no stable
// identity across source batches, so re-ingestion replaces the whole set.
type LineItem struct {
	ID          snowflake.ID     `gorm:"primaryKey"`
	InvoiceID   snowflake.ID     `gorm:"not null;index"`
	LineIndex   int              `gorm:"not null"`
	Description *string          `gorm:"type:text"`
	SKU         *string          `gorm:"type:text"`
	Quantity    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	UnitPrice   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TaxAmount   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Amount      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	CategoryID  *snowflake.ID    `gorm:"index"`
	Metadata    datatypes.JSON   `gorm:"type:jsonb"`
	CreatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "invoice_line_items" }

// Payment is a recorded payment against an invoice. Amount is required;
// candidates without a resolvable amount are dropped during extraction.
type Payment struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	InvoiceID snowflake.ID    `gorm:"not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaidAt    *time.Time
	Method    *string         `gorm:"type:text"`
	Reference *string         `gorm:"type:text"`
	Raw       datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// Aggregate is one fully normalized record handed to the upsert layer.
type Aggregate struct {
	Header    Header
	LineItems []LineItem
	Payments  []Payment
}

// Header carries the extracted invoice-level fields.
type Header struct {
	InvoiceNumber *string
	InvoiceRef    *string
	VendorID      *snowflake.ID
	CustomerID    *snowflake.ID
	IssueDate     *time.Time
	DueDate       *time.Time
	Currency      string
	Subtotal      *decimal.Decimal
	Tax           *decimal.Decimal
	Total         *decimal.Decimal
	Status        string
	Notes         *string
	Raw           datatypes.JSON
}
