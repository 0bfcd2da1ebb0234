// Package domain contains the vendor model and its resolution contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Vendor is a supplier referenced by invoices. Identity is vendor_ref
// when the source supplies one, otherwise the exact name.
type Vendor struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	VendorRef *string           `gorm:"uniqueIndex"`
	Name      string            `gorm:"not null;uniqueIndex"`
	TaxNumber *string           `gorm:"type:text"`
	Email     *string           `gorm:"type:text"`
	Phone     *string           `gorm:"type:text"`
	Address   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Vendor) TableName() string { return "vendors" }

// Attributes is the bundle extracted for one vendor sighting. Nil fields
// were absent from the source record; resolution never lets them erase
// stored values.
type Attributes struct {
	VendorRef *string
	Name      *string
	TaxNumber *string
	Email     *string
	Phone     *string
	// Address may be a structured map or a bare string.
	Address any
}

// AddressMap normalizes the address shape for storage: plain strings are
// wrapped as {"address": s}.
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
