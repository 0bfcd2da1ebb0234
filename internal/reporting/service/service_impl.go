package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/invosync/invosync/internal/reporting/domain"
	"github.com/invosync/invosync/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type service struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(p ServiceParam) domain.Service {
	return &service{
		db:  p.DB,
		log: p.Log.Named("reporting.service"),
	}
}

func (s *service) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats

	yearStart := time.Date(time.Now().UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	var ytd struct {
		Sum decimal.Decimal
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total), 0) AS sum FROM invoices
		 WHERE total IS NOT NULL AND issue_date >= ?`,
		yearStart,
	).Scan(&ytd).Error
	if err != nil {
		return stats, err
	}
	stats.TotalSpendYTD = ytd.Sum

	if err := s.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM invoices`).
		Scan(&stats.TotalInvoices).Error; err != nil {
		return stats, err
	}

	var avg struct {
		Avg decimal.Decimal
	}
	err = s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(AVG(total), 0) AS avg FROM invoices WHERE total IS NOT NULL`,
	).Scan(&avg).Error
	if err != nil {
		return stats, err
	}
	stats.AverageInvoiceValue = avg.Avg

	return stats, nil
}

// MonthlyTrends groups dated invoices by issue month. Grouping happens
// in memory so the query stays portable across dialects.
func (s *service) MonthlyTrends(ctx context.Context) ([]domain.MonthlyTrend, error) {
	var rows []struct {
		IssueDate time.Time
		Total     *decimal.Decimal
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT issue_date, total FROM invoices
		 WHERE issue_date IS NOT NULL
		 ORDER BY issue_date ASC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*domain.MonthlyTrend)
	for _, row := range rows {
		month := row.IssueDate.UTC().Format("2006-01")
		trend, ok := grouped[month]
		if !ok {
			trend = &domain.MonthlyTrend{Month: month}
			grouped[month] = trend
		}
		trend.InvoiceCount++
		if row.Total != nil {
			trend.TotalValue = trend.TotalValue.Add(*row.Total)
		}
	}

	trends := make([]domain.MonthlyTrend, 0, len(grouped))
	for _, trend := range grouped {
		trends = append(trends, *trend)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Month < trends[j].Month })
	return trends, nil
}

func (s *service) TopVendors(ctx context.Context, limit int) ([]domain.VendorSpend, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []domain.VendorSpend
	err := s.db.WithContext(ctx).Raw(
		`SELECT v.name AS vendor_name, SUM(i.total) AS total_spend
		 FROM vendors v
		 JOIN invoices i ON i.vendor_id = v.id
		 WHERE i.total IS NOT NULL
		 GROUP BY v.name
		 HAVING SUM(i.total) > 0
		 ORDER BY total_spend DESC
		 LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) CategorySpend(ctx context.Context) ([]domain.CategorySpend, error) {
	var rows []domain.CategorySpend
	err := s.db.WithContext(ctx).Raw(
		`SELECT c.name AS category, SUM(li.amount) AS total_spend
		 FROM categories c
		 JOIN invoice_line_items li ON li.category_id = c.id
		 WHERE li.amount IS NOT NULL
		 GROUP BY c.name
		 HAVING SUM(li.amount) > 0
		 ORDER BY total_spend DESC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CashOutflow sums invoice totals by upcoming due date for the next
// `days` days.
func (s *service) CashOutflow(ctx context.Context, days int) ([]domain.CashOutflow, error) {
	if days <= 0 {
		days = 30
	}
	now := time.Now().UTC()
	horizon := now.AddDate(0, 0, days)

	var rows []struct {
		DueDate time.Time
		Total   decimal.Decimal
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT due_date, total FROM invoices
		 WHERE due_date IS NOT NULL AND due_date >= ? AND due_date <= ?
		   AND total IS NOT NULL
		 ORDER BY due_date ASC`,
		now, horizon,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]decimal.Decimal)
	for _, row := range rows {
		day := row.DueDate.UTC().Format("2006-01-02")
		grouped[day] = grouped[day].Add(row.Total)
	}

	outflows := make([]domain.CashOutflow, 0, len(grouped))
	for day, sum := range grouped {
		outflows = append(outflows, domain.CashOutflow{Date: day, ExpectedOutflow: sum})
	}
	sort.Slice(outflows, func(i, j int) bool { return outflows[i].Date < outflows[j].Date })
	if len(outflows) > days {
		outflows = outflows[:days]
	}
	return outflows, nil
}

func (s *service) ListInvoices(ctx context.Context, filter domain.InvoiceFilter, page pagination.Pagination) ([]domain.InvoiceRow, error) {
	page = page.Normalize()

	query := `SELECT i.id, i.invoice_number, v.name AS vendor_name, c.name AS customer_name,
	                 i.issue_date, i.due_date, i.currency, i.total, i.status
	          FROM invoices i
	          LEFT JOIN vendors v ON v.id = i.vendor_id
	          LEFT JOIN customers c ON c.id = i.customer_id`
	var (
		conditions []string
		args       []any
	)
	if filter.Search != "" {
		conditions = append(conditions, `(LOWER(i.invoice_number) LIKE ? OR LOWER(v.name) LIKE ?)`)
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like)
	}
	if filter.Status != "" {
		conditions = append(conditions, `i.status = ?`)
		args = append(args, filter.Status)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY i.issue_date DESC LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	var rows []domain.InvoiceRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) ListVendors(ctx context.Context, page pagination.Pagination) ([]domain.VendorRow, error) {
	page = page.Normalize()

	var rows []domain.VendorRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT v.id, v.name, COUNT(i.id) AS invoice_count, COALESCE(SUM(i.total), 0) AS total_spend
		 FROM vendors v
		 LEFT JOIN invoices i ON i.vendor_id = v.id
		 GROUP BY v.id, v.name
		 ORDER BY v.name ASC
		 LIMIT ? OFFSET ?`,
		page.Limit, page.Offset,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
