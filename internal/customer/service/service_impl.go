package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/invosync/invosync/internal/customer/domain"
	"github.com/invosync/invosync/pkg/coalesce"
	pkgdb "github.com/invosync/invosync/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p ServiceParam) domain.Service {
	return &service{
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *service) Resolve(ctx context.Context, db *gorm.DB, attrs domain.Attributes) (*domain.Customer, error) {
	if attrs.Name == nil {
		return nil, nil
	}

	existing, err := s.find(ctx, db, attrs)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.merge(ctx, db, existing, attrs)
	}

	customer := &domain.Customer{
		ID:          s.genID.Generate(),
		CustomerRef: attrs.CustomerRef,
		Name:        *attrs.Name,
		Email:       attrs.Email,
		Phone:       attrs.Phone,
		Address:     attrs.AddressMap(),
	}
	if err := s.repo.Insert(ctx, db, customer); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			existing, ferr := s.find(ctx, db, attrs)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil {
				return s.merge(ctx, db, existing, attrs)
			}
		}
		return nil, fmt.Errorf("insert customer %q: %w", *attrs.Name, err)
	}

	s.log.Debug("customer created", zap.String("name", customer.Name))
	return customer, nil
}

func (s *service) find(ctx context.Context, db *gorm.DB, attrs domain.Attributes) (*domain.Customer, error) {
	if attrs.CustomerRef != nil {
		return s.repo.FindByRef(ctx, db, *attrs.CustomerRef)
	}
	return s.repo.FindByName(ctx, db, *attrs.Name)
}

func (s *service) merge(ctx context.Context, db *gorm.DB, existing *domain.Customer, attrs domain.Attributes) (*domain.Customer, error) {
	existing.Name = *attrs.Name
	existing.Email = coalesce.Ptr(attrs.Email, existing.Email)
	existing.Phone = coalesce.Ptr(attrs.Phone, existing.Phone)
	if addr := attrs.AddressMap(); addr != nil {
		existing.Address = addr
	}
	if err := s.repo.Update(ctx, db, existing); err != nil {
		return nil, fmt.Errorf("update customer %q: %w", existing.Name, err)
	}
	return existing, nil
}
