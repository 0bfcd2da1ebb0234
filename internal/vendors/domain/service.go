package domain

import (
	"context"

	"gorm.io/gorm"
)

// Service resolves extracted vendor bundles onto canonical rows.
type Service interface {
	// Resolve finds or creates the vendor identified by attrs, merging
	// non-nil attributes into an existing row. It returns nil (and no
	// error) when attrs carries no name: the caller treats that as
	// "invoice has no vendor".
	Resolve(ctx context.Context, db *gorm.DB, attrs Attributes) (*Vendor, error)
}
