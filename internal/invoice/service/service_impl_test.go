package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/invoice/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Invoice{},
		&domain.LineItem{},
		&domain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestUpsert_InsertThenMerge(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, domain.Aggregate{
		Header: domain.Header{
			InvoiceNumber: strPtr("INV-1"),
			Currency:      "EUR",
			Total:         decPtr("100"),
			Status:        domain.StatusProcessed,
		},
	})
	require.NoError(t, err)

	// re-ingestion with partial data must keep the known total
	second, err := svc.Upsert(ctx, domain.Aggregate{
		Header: domain.Header{
			InvoiceNumber: strPtr("INV-1"),
			Currency:      "EUR",
			Notes:         strPtr("second pass"),
			Status:        domain.StatusProcessed,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var stored domain.Invoice
	require.NoError(t, db.First(&stored, "invoice_number = ?", "INV-1").Error)
	require.NotNil(t, stored.Total)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, stored.Notes)
	assert.Equal(t, "second pass", *stored.Notes)

	var count int64
	db.Model(&domain.Invoice{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestUpsert_ReplacesLineItems(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	items := func(descs ...string) []domain.LineItem {
		out := make([]domain.LineItem, len(descs))
		for i, d := range descs {
			desc := d
			out[i] = domain.LineItem{LineIndex: i, Description: &desc}
		}
		return out
	}

	inv, err := svc.Upsert(ctx, domain.Aggregate{
		Header:    domain.Header{InvoiceNumber: strPtr("INV-2"), Currency: "EUR", Status: domain.StatusProcessed},
		LineItems: items("a", "b", "c"),
	})
	require.NoError(t, err)

	var count int64
	db.Model(&domain.LineItem{}).Where("invoice_id = ?", inv.ID).Count(&count)
	require.EqualValues(t, 3, count)

	_, err = svc.Upsert(ctx, domain.Aggregate{
		Header:    domain.Header{InvoiceNumber: strPtr("INV-2"), Currency: "EUR", Status: domain.StatusProcessed},
		LineItems: items("only one"),
	})
	require.NoError(t, err)

	db.Model(&domain.LineItem{}).Where("invoice_id = ?", inv.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	var remaining domain.LineItem
	require.NoError(t, db.First(&remaining, "invoice_id = ?", inv.ID).Error)
	assert.Equal(t, "only one", *remaining.Description)
}

func TestUpsert_ReplacesPayments(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	inv, err := svc.Upsert(ctx, domain.Aggregate{
		Header: domain.Header{InvoiceRef: strPtr("ref-9"), Currency: "EUR", Status: domain.StatusProcessed},
		Payments: []domain.Payment{
			{Amount: decimal.NewFromInt(40)},
			{Amount: decimal.NewFromInt(60)},
		},
	})
	require.NoError(t, err)

	// a later sighting without payments clears the set
	_, err = svc.Upsert(ctx, domain.Aggregate{
		Header: domain.Header{InvoiceRef: strPtr("ref-9"), Currency: "EUR", Status: domain.StatusProcessed},
	})
	require.NoError(t, err)

	var count int64
	db.Model(&domain.Payment{}).Where("invoice_id = ?", inv.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestUpsert_NoIdentityAlwaysInserts(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Upsert(ctx, domain.Aggregate{
			Header: domain.Header{Currency: "EUR", Status: domain.StatusProcessed, Total: decPtr("5")},
		})
		require.NoError(t, err)
	}

	var count int64
	db.Model(&domain.Invoice{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestUpsert_RefWinsOverNumber(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, domain.Aggregate{
		Header: domain.Header{
			InvoiceRef:    strPtr("ref-1"),
			InvoiceNumber: strPtr("INV-A"),
			Currency:      "EUR",
			Status:        domain.StatusProcessed,
		},
	})
	require.NoError(t, err)

	// matched by ref even though the number changed
	second, err := svc.Upsert(ctx, domain.Aggregate{
		Header: domain.Header{
			InvoiceRef:    strPtr("ref-1"),
			InvoiceNumber: strPtr("INV-B"),
			Currency:      "EUR",
			Status:        domain.StatusProcessed,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&domain.Invoice{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
