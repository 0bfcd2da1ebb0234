// Package domain contains the customer model and its resolution contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer is a billed party referenced by invoices. Identity is
// customer_ref when the source supplies one, otherwise the exact name.
type Customer struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	CustomerRef *string           `gorm:"uniqueIndex"`
	Name        string            `gorm:"not null;uniqueIndex"`
	Email       *string           `gorm:"type:text"`
	Phone       *string           `gorm:"type:text"`
	Address     datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

// Attributes is the bundle extracted for one customer sighting.
type Attributes struct {
	CustomerRef *string
	Name        *string
	Email       *string
	Phone       *string
	Address     any
}

// AddressMap normalizes the address shape for storage.
func (a Attributes) AddressMap() datatypes.JSONMap {
	switch addr := a.Address.(type) {
	case nil:
		return nil
	case string:
		if addr == "" {
			return nil
		}
		return datatypes.JSONMap{"address": addr}
	case map[string]any:
		if len(addr) == 0 {
			return nil
		}
		return datatypes.JSONMap(addr)
	default:
		return nil
	}
}
