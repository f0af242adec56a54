package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labcatalog/internal/auth"
	commoncfg "labcatalog/internal/common/config"
	"labcatalog/internal/domain"
	"labcatalog/internal/repository"
	"labcatalog/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func seed(t *testing.T, path string, compounds ...domain.Compound) {
	t.Helper()
	ctx := context.Background()
	docs, err := store.Open(ctx, store.BackendSQLite, nil, &commoncfg.SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer docs.Close()
	repo := repository.New(docs)
	for i := range compounds {
		_, err := repo.CreateCompound(ctx, &compounds[i])
		require.NoError(t, err)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRefsAudit(t *testing.T) {
	path := useSQLite(t)
	seed(t, path, domain.Compound{Name: "Acetone", Methods: []string{"m1"}, Panels: []string{"VOC"}})

	out, err := run(t, "refs", "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "Acetone")
	assert.Contains(t, out, "m1")
	assert.Contains(t, out, "VOC")

	_, err = run(t, "refs", "audit", "--strict")
	assert.ErrorContains(t, err, "2 dangling references")
}

func TestExportThenImport(t *testing.T) {
	path := useSQLite(t)
	seed(t, path,
		domain.Compound{Name: "Lead", Methods: []string{}, Panels: []string{"Metals"}},
		domain.Compound{Name: "Zinc", Methods: []string{}, Panels: []string{"Metals"}},
	)
	file := filepath.Join(t.TempDir(), "compounds.xlsx")

	out, err := run(t, "export", "--type", "compounds", "-o", file)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+file)
	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	out, err = run(t, "import", "--type", "compounds", "--mode", "replace", file)
	require.NoError(t, err)
	assert.Equal(t, "compounds (replace): 2 rows, 2 written, 0 deleted\n", out)

	_, err = run(t, "import", "--type", "notes", file)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTokenIssue(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	out, err := run(t, "token", "--email", "qa@lab.example", "--role", "admin")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	gate := auth.NewJWTGate([]byte("test-secret"), "")
	req := newRequestWithBearer(t, token)
	p, err := gate.Authenticate(req)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
	assert.Equal(t, "qa@lab.example", p.Email)
}

func newRequestWithBearer(t *testing.T, token string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/auth-check", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
