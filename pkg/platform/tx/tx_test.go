package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEmptyContext(t *testing.T) {
	got, ok := From(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestWithNilTxLeavesContextUntouched(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))
}

func TestQuerierFallsBackToDB(t *testing.T) {
	db := &sql.DB{}
	q := Querier(context.Background(), db)
	assert.Same(t, db, q)
}

func TestQuerierPrefersAmbientTx(t *testing.T) {
	sqlTx := &sql.Tx{}
	ctx := WithTx(context.Background(), sqlTx)
	q := Querier(ctx, &sql.DB{})
	assert.Same(t, sqlTx, q)
}
