package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByRef(ctx context.Context, db *gorm.DB, ref string) (*Customer, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Customer, error)
}
