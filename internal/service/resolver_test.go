package service

import (
	"context"
	"errors"
	"testing"

	"labcatalog/internal/domain"
	"labcatalog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestResolveMethodsForCompound_DanglingReference(t *testing.T) {
	defer goleak.VerifyNone(t)
	env := newTestEnv(t)

	id := env.seedCompound(t, domain.Compound{Name: "Acetone", CAS: "67-64-1", Panels: []string{"VOC"}, Methods: []string{"m1"}})
	c, err := env.repo.GetCompound(context.Background(), id)
	require.NoError(t, err)

	refs, err := env.resolver.ResolveMethodsForCompound(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.False(t, refs[0].Resolved)
	assert.Equal(t, "m1", refs[0].ID)
	assert.Equal(t, domain.UnknownMethodName, refs[0].Name)
	assert.Equal(t, []string{"m1"}, UnresolvedMethods(refs))
}

func TestResolveMethods_PreservesOrderAndLength(t *testing.T) {
	defer goleak.VerifyNone(t)
	env := newTestEnv(t)
	a := env.seedMethod(t, domain.Method{Name: "NIOSH 1501"})
	b := env.seedMethod(t, domain.Method{Name: "EPA TO-15"})

	ids := []string{b, "gone", a, "gone", b}
	refs, err := env.resolver.ResolveMethods(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, refs, len(ids))

	gotNames := make([]string, len(refs))
	for i, r := range refs {
		gotNames[i] = r.Name
	}
	assert.Equal(t, []string{"EPA TO-15", "unknown", "NIOSH 1501", "unknown", "EPA TO-15"}, gotNames)
	assert.Equal(t, []bool{true, false, true, false, true},
		[]bool{refs[0].Resolved, refs[1].Resolved, refs[2].Resolved, refs[3].Resolved, refs[4].Resolved})

	w := Warning("method", UnresolvedMethods(refs))
	require.NotNil(t, w)
	assert.Equal(t, []string{"gone", "gone"}, w.Unresolved)
	assert.Nil(t, Warning("method", nil))
}

type brokenMethods struct {
	repository.MethodsRepository
}

func (brokenMethods) GetMethod(context.Context, string) (*domain.Method, error) {
	return nil, domain.Upstream("get method", errors.New("deadline exceeded"))
}

func TestResolveMethods_UpstreamFailureSurfaces(t *testing.T) {
	defer goleak.VerifyNone(t)
	env := newTestEnv(t)
	r := NewResolver(brokenMethods{env.repo}, env.repo, zap.NewNop())

	_, err := r.ResolveMethods(context.Background(), []string{"m1", "m2"})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestPanelIndex_ResolvesByIDOrName(t *testing.T) {
	env := newTestEnv(t)
	vocID := env.seedPanel(t, domain.Panel{Name: "VOC", AssociatedPanels: []string{}})
	metalsID := env.seedPanel(t, domain.Panel{Name: "Metals", AssociatedPanels: []string{}})
	p := &domain.Panel{ID: "p", Name: "Combo", AssociatedPanels: []string{vocID, "Metals", "Retired"}}

	refs, err := env.resolver.ResolveAssociatedPanels(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, PanelRef{Label: vocID, ID: vocID, Name: "VOC", AssociatedPanels: []string{}, Resolved: true}, refs[0])
	assert.Equal(t, metalsID, refs[1].ID)
	assert.Equal(t, PanelRef{Label: "Retired", Name: "Retired"}, refs[2])
	assert.Equal(t, []string{"Retired"}, UnresolvedPanels(refs))

	c := &domain.Compound{Name: "Lead", Panels: []string{"Metals", "Metals"}}
	crefs, err := env.resolver.ResolvePanelsForCompound(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, crefs, 2)
	assert.Empty(t, UnresolvedPanels(crefs))
}

func TestAudit_ListsDanglingReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedPanel(t, domain.Panel{Name: "VOC", AssociatedPanels: []string{}})
	m := env.seedMethod(t, domain.Method{Name: "EPA TO-15"})
	env.seedCompound(t, domain.Compound{Name: "Acetone", Methods: []string{m, "m1"}, Panels: []string{"VOC", "Retired"}})
	env.seedCompound(t, domain.Compound{Name: "Benzene", Methods: []string{m}, Panels: []string{"VOC"}})

	compounds, err := env.catalog.ListCompounds(ctx)
	require.NoError(t, err)
	dangling, err := env.resolver.Audit(ctx, compounds)
	require.NoError(t, err)
	require.Len(t, dangling, 2)
	assert.Equal(t, "Acetone", dangling[0].Compound)
	assert.Equal(t, "method", dangling[0].Kind)
	assert.Equal(t, "m1", dangling[0].Ref)
	assert.Equal(t, DanglingReference{CompoundID: compounds[0].ID, Compound: "Acetone", Kind: "panel", Ref: "Retired"}, dangling[1])
}
