package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	categorydomain "github.com/invosync/invosync/internal/category/domain"
	customerdomain "github.com/invosync/invosync/internal/customer/domain"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/reporting/domain"
	vendordomain "github.com/invosync/invosync/internal/vendors/domain"
	"github.com/invosync/invosync/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&vendordomain.Vendor{},
		&customerdomain.Customer{},
		&categorydomain.Category{},
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&invoicedomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(ServiceParam{DB: db, Log: zap.NewNop()}), db, node
}

func seedInvoice(t *testing.T, db *gorm.DB, node *snowflake.Node, number string, vendorID *snowflake.ID, issue time.Time, total int64) invoicedomain.Invoice {
	t.Helper()
	amount := decimal.NewFromInt(total)
	invoice := invoicedomain.Invoice{
		ID:            node.Generate(),
		InvoiceNumber: &number,
		VendorID:      vendorID,
		IssueDate:     &issue,
		Currency:      "EUR",
		Total:         &amount,
		Status:        invoicedomain.StatusProcessed,
	}
	require.NoError(t, db.Create(&invoice).Error)
	return invoice
}

func TestStats(t *testing.T) {
	svc, db, node := newTestService(t)

	thisYear := time.Date(time.Now().UTC().Year(), time.March, 10, 0, 0, 0, 0, time.UTC)
	lastYear := thisYear.AddDate(-1, 0, 0)

	seedInvoice(t, db, node, "S-1", nil, thisYear, 100)
	seedInvoice(t, db, node, "S-2", nil, thisYear, 50)
	seedInvoice(t, db, node, "S-3", nil, lastYear, 999)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.TotalInvoices)
	assert.True(t, stats.TotalSpendYTD.Equal(decimal.NewFromInt(150)), "ytd excludes prior years, got %s", stats.TotalSpendYTD)
	assert.True(t, stats.AverageInvoiceValue.Equal(decimal.NewFromFloat(383)), "avg over all priced invoices, got %s", stats.AverageInvoiceValue)
}

func TestMonthlyTrends(t *testing.T) {
	svc, db, node := newTestService(t)

	jan := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, node, "M-1", nil, jan, 10)
	seedInvoice(t, db, node, "M-2", nil, jan, 20)
	seedInvoice(t, db, node, "M-3", nil, feb, 5)

	trends, err := svc.MonthlyTrends(context.Background())
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, "2024-01", trends[0].Month)
	assert.EqualValues(t, 2, trends[0].InvoiceCount)
	assert.True(t, trends[0].TotalValue.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "2024-02", trends[1].Month)
	assert.EqualValues(t, 1, trends[1].InvoiceCount)
}

func TestTopVendors(t *testing.T) {
	svc, db, node := newTestService(t)

	acme := vendordomain.Vendor{ID: node.Generate(), Name: "Acme"}
	globex := vendordomain.Vendor{ID: node.Generate(), Name: "Globex"}
	require.NoError(t, db.Create(&acme).Error)
	require.NoError(t, db.Create(&globex).Error)

	issue := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, node, "V-1", &acme.ID, issue, 100)
	seedInvoice(t, db, node, "V-2", &acme.ID, issue, 200)
	seedInvoice(t, db, node, "V-3", &globex.ID, issue, 50)

	vendors, err := svc.TopVendors(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, vendors, 2)

	assert.Equal(t, "Acme", vendors[0].VendorName)
	assert.True(t, vendors[0].TotalSpend.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "Globex", vendors[1].VendorName)

	limited, err := svc.TopVendors(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "Acme", limited[0].VendorName)
}

func TestCategorySpend(t *testing.T) {
	svc, db, node := newTestService(t)

	office := categorydomain.Category{ID: node.Generate(), Name: "6815"}
	require.NoError(t, db.Create(&office).Error)

	issue := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	invoice := seedInvoice(t, db, node, "C-1", nil, issue, 100)

	amount := decimal.NewFromInt(60)
	item := invoicedomain.LineItem{
		ID:         node.Generate(),
		InvoiceID:  invoice.ID,
		CategoryID: &office.ID,
		Amount:     &amount,
	}
	require.NoError(t, db.Create(&item).Error)

	spend, err := svc.CategorySpend(context.Background())
	require.NoError(t, err)
	require.Len(t, spend, 1)
	assert.Equal(t, "6815", spend[0].Category)
	assert.True(t, spend[0].TotalSpend.Equal(decimal.NewFromInt(60)))
}

func TestCashOutflow(t *testing.T) {
	svc, db, node := newTestService(t)

	due := time.Now().UTC().AddDate(0, 0, 7)
	farOut := time.Now().UTC().AddDate(0, 0, 60)
	issue := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	first := seedInvoice(t, db, node, "O-1", nil, issue, 100)
	require.NoError(t, db.Model(&first).Update("due_date", due).Error)
	second := seedInvoice(t, db, node, "O-2", nil, issue, 40)
	require.NoError(t, db.Model(&second).Update("due_date", due).Error)
	third := seedInvoice(t, db, node, "O-3", nil, issue, 999)
	require.NoError(t, db.Model(&third).Update("due_date", farOut).Error)

	outflows, err := svc.CashOutflow(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, outflows, 1)
	assert.Equal(t, due.Format("2006-01-02"), outflows[0].Date)
	assert.True(t, outflows[0].ExpectedOutflow.Equal(decimal.NewFromInt(140)))
}

func TestListVendors(t *testing.T) {
	svc, db, node := newTestService(t)

	acme := vendordomain.Vendor{ID: node.Generate(), Name: "Acme"}
	globex := vendordomain.Vendor{ID: node.Generate(), Name: "Globex"}
	idle := vendordomain.Vendor{ID: node.Generate(), Name: "Idle Co"}
	require.NoError(t, db.Create(&acme).Error)
	require.NoError(t, db.Create(&globex).Error)
	require.NoError(t, db.Create(&idle).Error)

	issue := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, node, "W-1", &acme.ID, issue, 100)
	seedInvoice(t, db, node, "W-2", &acme.ID, issue, 50)
	seedInvoice(t, db, node, "W-3", &globex.ID, issue, 30)

	vendors, err := svc.ListVendors(context.Background(), pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, vendors, 3)

	assert.Equal(t, "Acme", vendors[0].Name)
	assert.EqualValues(t, 2, vendors[0].InvoiceCount)
	assert.True(t, vendors[0].TotalSpend.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "Globex", vendors[1].Name)
	assert.EqualValues(t, 1, vendors[1].InvoiceCount)

	// vendors without invoices still appear, with zero counts
	assert.Equal(t, "Idle Co", vendors[2].Name)
	assert.EqualValues(t, 0, vendors[2].InvoiceCount)
	assert.True(t, vendors[2].TotalSpend.IsZero())

	paged, err := svc.ListVendors(context.Background(), pagination.Pagination{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Globex", paged[0].Name)
}

func TestListInvoices(t *testing.T) {
	svc, db, node := newTestService(t)

	acme := vendordomain.Vendor{ID: node.Generate(), Name: "Acme Industrial"}
	require.NoError(t, db.Create(&acme).Error)

	issue := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, node, "L-100", &acme.ID, issue, 10)
	seedInvoice(t, db, node, "L-200", nil, issue.AddDate(0, 1, 0), 20)

	all, err := svc.ListInvoices(context.Background(), domain.InvoiceFilter{}, pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byNumber, err := svc.ListInvoices(context.Background(), domain.InvoiceFilter{Search: "l-100"}, pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	require.NotNil(t, byNumber[0].InvoiceNumber)
	assert.Equal(t, "L-100", *byNumber[0].InvoiceNumber)

	byVendor, err := svc.ListInvoices(context.Background(), domain.InvoiceFilter{Search: "acme"}, pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, byVendor, 1)
	require.NotNil(t, byVendor[0].VendorName)
	assert.Equal(t, "Acme Industrial", *byVendor[0].VendorName)

	paged, err := svc.ListInvoices(context.Background(), domain.InvoiceFilter{}, pagination.Pagination{Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "L-200", *paged[0].InvoiceNumber)
}
