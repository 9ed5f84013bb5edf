package seed

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidsinhalf/mayocat-shop/pkg/database"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestEnsureTenant(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO tenants").
		WithArgs(pgxmock.AnyArg(), "acme", "Acme").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("tenant-acme"))

	id, err := EnsureTenant(context.Background(), mock, "acme", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant-acme", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCategory(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO categories").
		WithArgs(pgxmock.AnyArg(), "tenant-acme", "lighting", "Lighting", 3).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("cat-1"))

	id, err := UpsertCategory(context.Background(), mock, "tenant-acme", Category{Slug: "lighting", Title: "Lighting"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "cat-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCategory_Error(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO categories").
		WillReturnError(errors.New("relation does not exist"))

	_, err := UpsertCategory(context.Background(), mock, "tenant-acme", Category{Slug: "lighting"}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `upsert category "lighting"`)
}

func TestAssignCategory(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("INSERT INTO product_categories").
		WithArgs("tenant-acme", "brass-pen", "cat-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO product_categories").
		WithArgs("tenant-acme", "brass-pen", "cat-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	first, err := AssignCategory(context.Background(), mock, "tenant-acme", "brass-pen", "cat-1")
	require.NoError(t, err)
	again, err := AssignCategory(context.Background(), mock, "tenant-acme", "brass-pen", "cat-1")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, again)
	assert.NoError(t, mock.ExpectationsWereMet())
}
