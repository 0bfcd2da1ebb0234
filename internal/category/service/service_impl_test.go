package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/invosync/invosync/internal/category/domain"
	"github.com/invosync/invosync/internal/category/repository"
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
	require.NoError(t, db.AutoMigrate(&domain.Category{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(ServiceParam{Log: zap.NewNop(), GenID: node, Repo: repository.Provide()}), db
}

func TestResolve_EmptyNameIsNil(t *testing.T) {
	svc, db := newTestService(t)

	category, err := svc.Resolve(context.Background(), db, "")
	require.NoError(t, err)
	assert.Nil(t, category)
}

func TestResolve_CreatesOnce(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, db, "6815")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.Resolve(ctx, db, "6815")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&domain.Category{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestResolve_NamesAreCaseSensitive(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	lower, err := svc.Resolve(ctx, db, "travel")
	require.NoError(t, err)
	upper, err := svc.Resolve(ctx, db, "Travel")
	require.NoError(t, err)

	assert.NotEqual(t, lower.ID, upper.ID)
}
