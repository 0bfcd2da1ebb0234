package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/invosync/invosync/internal/category/domain"
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
		log:   p.Log.Named("category.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *service) Resolve(ctx context.Context, db *gorm.DB, name string) (*domain.Category, error) {
	if name == "" {
		return nil, nil
	}

	existing, err := s.repo.FindByName(ctx, db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	category := &domain.Category{
		ID:   s.genID.Generate(),
		Name: name,
	}
	if err := s.repo.Insert(ctx, db, category); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return s.repo.FindByName(ctx, db, name)
		}
		return nil, fmt.Errorf("insert category %q: %w", name, err)
	}
	return category, nil
}
