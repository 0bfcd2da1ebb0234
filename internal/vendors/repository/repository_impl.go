package repository

import (
	"context"
	"errors"

	"github.com/invosync/invosync/internal/vendors/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, vendor *domain.Vendor) error {
	return db.WithContext(ctx).Create(vendor).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, vendor *domain.Vendor) error {
	return db.WithContext(ctx).Save(vendor).Error
}

func (r *repo) FindByRef(ctx context.Context, db *gorm.DB, ref string) (*domain.Vendor, error) {
	return findOne(ctx, db, "vendor_ref = ?", ref)
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Vendor, error) {
	return findOne(ctx, db, "name = ?", name)
}

func findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Vendor, error) {
	var vendor domain.Vendor
	err := db.WithContext(ctx).Where(query, arg).First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}
