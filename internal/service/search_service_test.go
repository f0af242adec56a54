package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"
	"unicode/utf8"

	"labcatalog/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedSearchCatalog(t *testing.T, env *testEnv) {
	for _, c := range []domain.Compound{
		{Name: "Acetone", CAS: "67-64-1", Panels: []string{"VOC"}},
		{Name: "acetic acid", CAS: "64-19-7", Panels: []string{"Acids"}},
		{Name: "Benzene", CAS: "71-43-2", Panels: []string{"VOC", "BTEX"}},
		{Name: "1,4-Dioxane", CAS: "123-91-1"},
		{Name: "2-Butanone", CAS: "78-93-3", Panels: []string{"VOC"}},
		{Name: "Zinc", Panels: []string{"Metals"}},
		{Name: "zirconium", Panels: []string{"Metals"}},
	} {
		env.seedCompound(t, c)
	}
}

func TestBrowseByLetter_IncludesOnlyMatchingInitial(t *testing.T) {
	env := newTestEnv(t)
	seedSearchCatalog(t, env)
	ctx := context.Background()

	all, err := env.search.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 7)

	for _, c := range all {
		first, _ := utf8.DecodeRuneInString(c.Name)
		key := string(first)
		if unicode.IsDigit(first) {
			key = DigitsKey
		}
		got, err := env.search.BrowseByLetter(ctx, key, 1)
		require.NoError(t, err, key)
		assert.Contains(t, names(got.Items), c.Name, "browse %q", key)
		for _, other := range got.Items {
			r, _ := utf8.DecodeRuneInString(other.Name)
			if key == DigitsKey {
				assert.True(t, unicode.IsDigit(r), other.Name)
			} else {
				assert.Equal(t, unicode.ToLower(first), unicode.ToLower(r), other.Name)
			}
		}
	}
}

func TestBrowseByLetter_CaseInsensitiveAndDigits(t *testing.T) {
	env := newTestEnv(t)
	seedSearchCatalog(t, env)
	ctx := context.Background()

	upper, err := env.search.BrowseByLetter(ctx, "A", 1)
	require.NoError(t, err)
	lower, err := env.search.BrowseByLetter(ctx, "a", 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Acetone", "acetic acid"}, names(upper.Items))
	assert.Equal(t, names(upper.Items), names(lower.Items))
	assert.Equal(t, "a", lower.Query)

	digits, err := env.search.BrowseByLetter(ctx, "#", 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1,4-Dioxane", "2-Butanone"}, names(digits.Items))

	none, err := env.search.BrowseByLetter(ctx, "q", 1)
	require.NoError(t, err)
	assert.Empty(t, none.Items)
	assert.Equal(t, 0, none.TotalPages)
}

func TestBrowseByLetter_RejectsBadKeys(t *testing.T) {
	env := newTestEnv(t)
	for _, key := range []string{"", "ab", "!", "7"} {
		_, err := env.search.BrowseByLetter(context.Background(), key, 1)
		assert.ErrorIs(t, err, domain.ErrValidation, "key %q", key)
	}
}

func TestBrowseByLetter_Pages(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 23; i++ {
		env.seedCompound(t, domain.Compound{Name: fmt.Sprintf("Chloro-%02d", i)})
	}

	p3, err := env.search.BrowseByLetter(context.Background(), "c", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, p3.Page)
	assert.Equal(t, 3, p3.TotalPages)
	assert.Equal(t, 23, p3.Total)
	assert.Equal(t, []string{"Chloro-20", "Chloro-21", "Chloro-22"}, names(p3.Items))
}

func TestSearch_SubstringOnNameCASAndPanel(t *testing.T) {
	env := newTestEnv(t)
	seedSearchCatalog(t, env)
	ctx := context.Background()

	cases := map[string][]string{
		"ENZ":   {"Benzene"},
		"67-64": {"Acetone"},
		"voc":   {"2-Butanone", "Acetone", "Benzene"},
		"tal":   {"Zinc", "zirconium"},
		"acid":  {"acetic acid", "Acids-free"},
		"xyz":   {},
	}
	env.seedCompound(t, domain.Compound{Name: "Acids-free"})

	for term, want := range cases {
		got, err := env.search.Search(ctx, term)
		require.NoError(t, err, term)
		assert.ElementsMatch(t, want, names(got), "term %q", term)

		for _, c := range got {
			hay := strings.ToLower(c.Name + "|" + c.CAS + "|" + strings.Join(c.Panels, "|"))
			assert.Contains(t, hay, strings.ToLower(term))
		}
	}
}

func TestBrowseByPanel_IsContainmentNotSubstring(t *testing.T) {
	env := newTestEnv(t)
	seedSearchCatalog(t, env)
	ctx := context.Background()

	got, err := env.search.BrowseByPanel(ctx, "VOC", 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Acetone", "Benzene", "2-Butanone"}, names(got.Items))

	got, err = env.search.BrowseByPanel(ctx, "VO", 1)
	require.NoError(t, err)
	assert.Empty(t, got.Items)

	_, err = env.search.BrowseByPanel(ctx, " ", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPanelGroups_Aggregation(t *testing.T) {
	env := newTestEnv(t)
	env.seedCompound(t, domain.Compound{Name: "first", Panels: []string{"B", "A"}})
	env.seedCompound(t, domain.Compound{Name: "second", Panels: []string{"A", " "}})

	groups, err := env.search.PanelGroups(context.Background())
	require.NoError(t, err)

	got := map[string][]string{}
	var order []string
	for _, g := range groups {
		order = append(order, g.Panel)
		got[g.Panel] = names(g.Compounds)
	}
	want := map[string][]string{"A": {"first", "second"}, "B": {"first"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("panel groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"A", "B"}, order)
}

func TestGroupByPanel_LocaleOrderAndDuplicates(t *testing.T) {
	groups := GroupByPanel([]*domain.Compound{
		{Name: "x", Panels: []string{"beta", "Alpha", "alpha", "Beta", "beta"}},
	})
	var order []string
	for _, g := range groups {
		order = append(order, g.Panel)
	}
	assert.Equal(t, []string{"alpha", "Alpha", "beta", "Beta"}, order)
	assert.Len(t, groups[2].Compounds, 2)
}

func TestSearch_CacheInvalidatedByCatalogWrites(t *testing.T) {
	env := newTestEnv(t)
	seedSearchCatalog(t, env)
	ctx := context.Background()

	got, err := env.search.Search(ctx, "tol")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, env.kv.len())

	_, err = env.catalog.CreateCompound(adminCtx, CompoundInput{Name: "Toluene", Panels: []string{"BTEX"}})
	require.NoError(t, err)
	assert.Equal(t, 0, env.kv.len())

	got, err = env.search.Search(ctx, "tol")
	require.NoError(t, err)
	assert.Equal(t, []string{"Toluene"}, names(got))
}

// writeOnFillKV commits a catalog write right before the first cache fill,
// after the search has already read the store.
type writeOnFillKV struct {
	*fakeKV
	once  sync.Once
	write func()
}

func (k *writeOnFillKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	k.once.Do(k.write)
	return k.fakeKV.Set(ctx, key, value, ttl)
}

func TestSearch_WriteDuringCacheFillIsNotHidden(t *testing.T) {
	env := newTestEnv(t)
	seedSearchCatalog(t, env)
	kv := &writeOnFillKV{fakeKV: newFakeKV()}
	env.search = NewSearchService(env.repo, kv, time.Minute, zap.NewNop())
	env.catalog = NewCatalogService(env.repo, env.resolver, env.search, zap.NewNop())
	kv.write = func() {
		_, err := env.catalog.CreateCompound(adminCtx, CompoundInput{Name: "Acetaldehyde", CAS: "75-07-0"})
		require.NoError(t, err)
	}
	ctx := context.Background()

	first, err := env.search.Search(ctx, "acet")
	require.NoError(t, err)
	assert.Equal(t, []string{"acetic acid", "Acetone"}, names(first))

	for i := 0; i < 2; i++ {
		got, err := env.search.Search(ctx, "acet")
		require.NoError(t, err)
		assert.Equal(t, []string{"Acetaldehyde", "acetic acid", "Acetone"}, names(got))
	}
}

func TestPanelGroups_WriteDuringCacheFillIsNotHidden(t *testing.T) {
	env := newTestEnv(t)
	seedSearchCatalog(t, env)
	kv := &writeOnFillKV{fakeKV: newFakeKV()}
	env.search = NewSearchService(env.repo, kv, time.Minute, zap.NewNop())
	env.catalog = NewCatalogService(env.repo, env.resolver, env.search, zap.NewNop())
	kv.write = func() {
		_, err := env.catalog.CreateCompound(adminCtx, CompoundInput{Name: "Cadmium", Panels: []string{"Metals"}})
		require.NoError(t, err)
	}
	ctx := context.Background()

	_, err := env.search.PanelGroups(ctx)
	require.NoError(t, err)

	groups, err := env.search.PanelGroups(ctx)
	require.NoError(t, err)
	byPanel := map[string][]string{}
	for _, g := range groups {
		byPanel[g.Panel] = names(g.Compounds)
	}
	assert.Equal(t, []string{"Cadmium", "Zinc", "zirconium"}, byPanel["Metals"])
}
