package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/invosync/invosync/internal/customer/domain"
	"github.com/invosync/invosync/internal/customer/repository"
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
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(ServiceParam{Log: zap.NewNop(), GenID: node, Repo: repository.Provide()}), db
}

func strPtr(s string) *string { return &s }

func TestResolve_NoNameIsNil(t *testing.T) {
	svc, db := newTestService(t)

	customer, err := svc.Resolve(context.Background(), db, domain.Attributes{Email: strPtr("a@b.c")})
	require.NoError(t, err)
	assert.Nil(t, customer)
}

func TestResolve_RefTakesPriorityOverName(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, db, domain.Attributes{
		CustomerRef: strPtr("cust-9"),
		Name:        strPtr("Initech"),
	})
	require.NoError(t, err)
	require.NotNil(t, first)

	// same ref, renamed upstream: must update the same row
	second, err := svc.Resolve(ctx, db, domain.Attributes{
		CustomerRef: strPtr("cust-9"),
		Name:        strPtr("Initech GmbH"),
	})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Initech GmbH", second.Name)

	var count int64
	db.Model(&domain.Customer{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestResolve_MergeKeepsExistingValues(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, db, domain.Attributes{
		Name:  strPtr("Hooli"),
		Email: strPtr("billing@hooli.example"),
	})
	require.NoError(t, err)

	merged, err := svc.Resolve(ctx, db, domain.Attributes{
		Name:  strPtr("Hooli"),
		Phone: strPtr("+49 30 1234"),
	})
	require.NoError(t, err)

	require.NotNil(t, merged.Email)
	assert.Equal(t, "billing@hooli.example", *merged.Email)
	require.NotNil(t, merged.Phone)
	assert.Equal(t, "+49 30 1234", *merged.Phone)
}
