package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/invosync/invosync/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Save(invoice).Error
}

func (r *repo) FindByRef(ctx context.Context, db *gorm.DB, ref string) (*domain.Invoice, error) {
	return findOne(ctx, db, "invoice_ref = ?", ref)
}

func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, number string) (*domain.Invoice, error) {
	return findOne(ctx, db, "invoice_number = ?", number)
}

func (r *repo) ReplaceLineItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []domain.LineItem) error {
	if err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Delete(&domain.LineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) ReplacePayments(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, payments []domain.Payment) error {
	if err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Delete(&domain.Payment{}).Error; err != nil {
		return err
	}
	if len(payments) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&payments).Error
}

func findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Where(query, arg).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}
