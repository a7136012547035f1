package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

func TestUpdateRejectsNonEditableColumns(t *testing.T) {
	// The whitelist check runs before any SQL is issued.
	r := NewPgSalesOrders(nil, nil)
	for _, col := range []string{"SalesOrderID", "Bogus", `"OrderDate"; DROP TABLE`} {
		_, err := r.Update(context.Background(), 1, map[string]any{col: 1})
		require.Error(t, err, "column %q", col)
		assert.True(t, errors.Is(err, common.ErrInvalidInput))
	}
}

func TestEditableOrderColumnsExcludeID(t *testing.T) {
	assert.False(t, editableOrderColumn("SalesOrderID"))
	assert.True(t, editableOrderColumn("TotalDue"))
	assert.Len(t, EditableOrderColumns, 22)
}

func TestListParamsNormalize(t *testing.T) {
	t.Run("defaults sort only", func(t *testing.T) {
		p := ListParams{Page: 1, PerPage: 10}
		require.NoError(t, p.Normalize())
		assert.Equal(t, "SalesOrderID", p.SortBy)
		assert.Equal(t, "asc", p.SortDir)
	})

	t.Run("accepts whitelisted sort", func(t *testing.T) {
		p := ListParams{Page: 2, PerPage: 25, SortBy: "TotalDue", SortDir: "DESC"}
		require.NoError(t, p.Normalize())
		assert.Equal(t, "desc", p.SortDir)
	})

	t.Run("rejects out of range", func(t *testing.T) {
		bad := []ListParams{
			{Page: 0, PerPage: 10},
			{Page: -1, PerPage: 10},
			{Page: 1, PerPage: 0},
			{Page: 1, PerPage: 101},
			{Page: 1, PerPage: 10, SortBy: "Bogus"},
			{Page: 1, PerPage: 10, SortBy: "OrderDate; DROP TABLE"},
			{Page: 1, PerPage: 10, SortDir: "sideways"},
		}
		for _, p := range bad {
			err := p.Normalize()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidInput))
		}
	})
}
