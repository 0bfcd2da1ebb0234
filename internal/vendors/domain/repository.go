package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	Update(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	FindByRef(ctx context.Context, db *gorm.DB, ref string) (*Vendor, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Vendor, error)
}
