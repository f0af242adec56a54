package store

import (
	"context"
	"path/filepath"
	"testing"

	"labcatalog/internal/common/config"
	"labcatalog/internal/common/database"

	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	db, err := database.NewSQLiteDB(&config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "docs.db")})
	require.NoError(t, err)
	s := NewSQLiteStore(db)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(context.Background()))

	runStoreContract(t, s)
}
