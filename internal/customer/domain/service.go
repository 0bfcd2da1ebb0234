package domain

import (
	"context"

	"gorm.io/gorm"
)

// Service resolves extracted customer bundles onto canonical rows.
type Service interface {
	Resolve(ctx context.Context, db *gorm.DB, attrs Attributes) (*Customer, error)
}
