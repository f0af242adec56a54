package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	seed := []map[string]any{
		{"name": "Acetone", "cas": "67-64-1", "panel": []string{"VOC", "Solvents"}, "active": true},
		{"name": "acetic acid", "panel": []string{"Acids"}, "active": false},
		{"name": "Benzene", "cas": "71-43-2", "panel": []string{"VOC"}, "active": true},
		{"name": "1,4-Dioxane", "panel": []string{}, "active": true},
	}
	ids := make([]string, len(seed))
	for i, fields := range seed {
		id, err := s.Add(ctx, "compounds", fields)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		ids[i] = id
	}

	t.Run("get", func(t *testing.T) {
		doc, err := s.Get(ctx, "compounds", ids[0])
		require.NoError(t, err)
		assert.Equal(t, ids[0], doc.ID)
		assert.Equal(t, "Acetone", doc.Fields["name"])
		assert.Equal(t, []any{"VOC", "Solvents"}, doc.Fields["panel"])

		_, err = s.Get(ctx, "compounds", "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("equality", func(t *testing.T) {
		docs, err := s.Query(ctx, "compounds", Where("cas", OpEqual, "71-43-2"))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Benzene", docs[0].Fields["name"])

		docs, err = s.Query(ctx, "compounds", Where("active", OpEqual, false))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, ids[1], docs[0].ID)
	})

	t.Run("half-open range is case sensitive", func(t *testing.T) {
		docs, err := s.Query(ctx, "compounds",
			Where("name", OpGreaterOrEqual, "A"), Where("name", OpLess, "A\U0010FFFF"))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Acetone", docs[0].Fields["name"])

		docs, err = s.Query(ctx, "compounds",
			Where("name", OpGreaterOrEqual, "0"), Where("name", OpLess, "9\U0010FFFF"))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "1,4-Dioxane", docs[0].Fields["name"])
	})

	t.Run("array contains", func(t *testing.T) {
		docs, err := s.Query(ctx, "compounds", Where("panel", OpArrayContains, "VOC"))
		require.NoError(t, err)
		assert.Len(t, docs, 2)

		docs, err = s.Query(ctx, "compounds", Where("panel", OpArrayContains, "Metals"))
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("update merges top-level fields", func(t *testing.T) {
		require.NoError(t, s.Update(ctx, "compounds", ids[2], map[string]any{"cas": "71-43-2X"}))
		doc, err := s.Get(ctx, "compounds", ids[2])
		require.NoError(t, err)
		assert.Equal(t, "Benzene", doc.Fields["name"])
		assert.Equal(t, "71-43-2X", doc.Fields["cas"])

		err = s.Update(ctx, "compounds", "missing", map[string]any{"cas": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "compounds", ids[3]))
		require.NoError(t, s.Delete(ctx, "compounds", ids[3]))
		_, err := s.Get(ctx, "compounds", ids[3])
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("batch is atomic", func(t *testing.T) {
		err := s.Batch(ctx, []WriteOp{
			SetOp("compounds", "batch-new", map[string]any{"name": "Toluene"}),
			DeleteOp("compounds", ids[0]),
			UpdateOp("compounds", "missing", map[string]any{"name": "x"}),
		})
		require.ErrorIs(t, err, ErrNotFound)

		_, err = s.Get(ctx, "compounds", "batch-new")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, "compounds", ids[0])
		assert.NoError(t, err)

		require.NoError(t, s.Batch(ctx, []WriteOp{
			SetOp("compounds", "batch-new", map[string]any{"name": "Toluene"}),
			UpdateOp("compounds", "batch-new", map[string]any{"cas": "108-88-3"}),
		}))
		doc, err := s.Get(ctx, "compounds", "batch-new")
		require.NoError(t, err)
		assert.Equal(t, "Toluene", doc.Fields["name"])
		assert.Equal(t, "108-88-3", doc.Fields["cas"])
	})

	t.Run("invalid field name rejected", func(t *testing.T) {
		_, err := s.Query(ctx, "compounds", Where("name'; drop", OpEqual, "x"))
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})
}
