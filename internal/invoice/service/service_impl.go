package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/pkg/coalesce"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p ServiceParam) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Upsert writes one aggregate in a single transaction. Partial
// application (header updated but stale children left behind) would be a
// correctness violation, so the child replacement shares the header's
// transactional scope.
func (s *service) Upsert(ctx context.Context, agg domain.Aggregate) (*domain.Invoice, error) {
	var result *domain.Invoice

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.upsertHeader(ctx, tx, agg.Header)
		if err != nil {
			return err
		}

		items := agg.LineItems
		for i := range items {
			items[i].ID = s.genID.Generate()
			items[i].InvoiceID = invoice.ID
		}
		if err := s.repo.ReplaceLineItems(ctx, tx, invoice.ID, items); err != nil {
			return fmt.Errorf("replace line items: %w", err)
		}

		payments := agg.Payments
		for i := range payments {
			payments[i].ID = s.genID.Generate()
			payments[i].InvoiceID = invoice.ID
		}
		if err := s.repo.ReplacePayments(ctx, tx, invoice.ID, payments); err != nil {
			return fmt.Errorf("replace payments: %w", err)
		}

		result = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) upsertHeader(ctx context.Context, tx *gorm.DB, header domain.Header) (*domain.Invoice, error) {
	existing, err := s.findByIdentity(ctx, tx, header)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.merge(ctx, tx, existing, header)
	}

	invoice := &domain.Invoice{
		ID:            s.genID.Generate(),
		InvoiceNumber: header.InvoiceNumber,
		InvoiceRef:    header.InvoiceRef,
		VendorID:      header.VendorID,
		CustomerID:    header.CustomerID,
		IssueDate:     header.IssueDate,
		DueDate:       header.DueDate,
		Currency:      header.Currency,
		Subtotal:      header.Subtotal,
		Tax:           header.Tax,
		Total:         header.Total,
		Status:        header.Status,
		Notes:         header.Notes,
		Raw:           header.Raw,
	}
	if err := s.repo.Insert(ctx, tx, invoice); err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	return invoice, nil
}

// findByIdentity resolves the natural identity: invoice_ref first, then
// invoice_number. Records with neither always become new invoices.
func (s *service) findByIdentity(ctx context.Context, tx *gorm.DB, header domain.Header) (*domain.Invoice, error) {
	if header.InvoiceRef != nil {
		return s.repo.FindByRef(ctx, tx, *header.InvoiceRef)
	}
	if header.InvoiceNumber != nil {
		return s.repo.FindByNumber(ctx, tx, *header.InvoiceNumber)
	}
	return nil, nil
}

func (s *service) merge(ctx context.Context, tx *gorm.DB, existing *domain.Invoice, header domain.Header) (*domain.Invoice, error) {
	existing.InvoiceNumber = coalesce.Ptr(header.InvoiceNumber, existing.InvoiceNumber)
	existing.VendorID = coalesce.Ptr(header.VendorID, existing.VendorID)
	existing.CustomerID = coalesce.Ptr(header.CustomerID, existing.CustomerID)
	existing.IssueDate = coalesce.Ptr(header.IssueDate, existing.IssueDate)
	existing.DueDate = coalesce.Ptr(header.DueDate, existing.DueDate)
	existing.Currency = coalesce.String(header.Currency, existing.Currency)
	existing.Subtotal = coalesce.Ptr(header.Subtotal, existing.Subtotal)
	existing.Tax = coalesce.Ptr(header.Tax, existing.Tax)
	existing.Total = coalesce.Ptr(header.Total, existing.Total)
	existing.Status = coalesce.String(header.Status, existing.Status)
	existing.Notes = coalesce.Ptr(header.Notes, existing.Notes)
	if len(header.Raw) > 0 {
		existing.Raw = header.Raw
	}
	if err := s.repo.Update(ctx, tx, existing); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return existing, nil
}
