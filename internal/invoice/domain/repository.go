package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByRef(ctx context.Context, db *gorm.DB, ref string) (*Invoice, error)
	FindByNumber(ctx context.Context, db *gorm.DB, number string) (*Invoice, error)

	// ReplaceLineItems deletes every stored line item for the invoice and
	// inserts items in their place. Same contract for ReplacePayments.
	ReplaceLineItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []LineItem) error
	ReplacePayments(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, payments []Payment) error
}
