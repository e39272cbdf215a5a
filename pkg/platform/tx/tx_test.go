package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTxNilKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))

	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestExecutorFallsBackToDB(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, Executor(context.Background(), db))
}

func TestExecutorPrefersContextTx(t *testing.T) {
	sqlTx := &sql.Tx{}
	ctx := WithTx(context.Background(), sqlTx)

	got, ok := From(ctx)
	assert.True(t, ok)
	assert.Same(t, sqlTx, got)
	assert.Same(t, sqlTx, Executor(ctx, &sql.DB{}))
}
