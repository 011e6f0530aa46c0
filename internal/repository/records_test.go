package repository

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFilterWhereClause(t *testing.T) {
	var f RecordFilter
	clause, args := f.WhereClause()
	assert.Empty(t, clause)
	assert.Empty(t, args)

	require.NoError(t, RecordsForPlayer("rogue")(&f))
	clause, args = f.WhereClause()
	assert.Equal(t, "username = @username", clause)
	assert.Equal(t, pgx.NamedArgs{"username": "rogue"}, args)
}

func TestRecordsLimit(t *testing.T) {
	var f RecordFilter

	require.NoError(t, RecordsLimit(10)(&f))
	assert.Equal(t, 10, f.limit)
	assert.Error(t, RecordsLimit(0)(&f))
	assert.Error(t, RecordsLimit(101)(&f))
}
