// Package domain contains the line-item category model.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Category is a chart-of-accounts style label attached to line items.
// Identity is the exact, case-sensitive name; rows are created once and
// never updated.
type Category struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Category) TableName() string { return "categories" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, category *Category) error
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Category, error)
}

// Service resolves category names onto canonical rows.
type Service interface {
	// Resolve returns the category named name, creating it on first
	// sighting. Empty names resolve to nil without error.
	Resolve(ctx context.Context, db *gorm.DB, name string) (*Category, error)
}
