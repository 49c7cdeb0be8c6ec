package migration

import (
	"testing"

	"stash-backend/internal/testutil"

	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	db := testutil.NewTestDB(t)

	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "receipts", "point_transactions", "redemptions"} {
		require.True(t, db.Migrator().HasTable(table), table)
	}
}
