package repository

import (
	"context"
	"errors"

	"github.com/invosync/invosync/internal/category/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Create(category).Error
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Category, error) {
	var category domain.Category
	err := db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}
