package repository

import (
	"context"
	"errors"

	"github.com/invosync/invosync/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Save(customer).Error
}

func (r *repo) FindByRef(ctx context.Context, db *gorm.DB, ref string) (*domain.Customer, error) {
	return findOne(ctx, db, "customer_ref = ?", ref)
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Customer, error) {
	return findOne(ctx, db, "name = ?", name)
}

func findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Where(query, arg).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}
