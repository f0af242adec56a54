package repository

import (
	"context"

	"labcatalog/internal/domain"
	"labcatalog/internal/store"
)

// CompoundsRepository compound documents
type CompoundsRepository interface {
	GetCompound(ctx context.Context, id string) (*domain.Compound, error)
	ListCompounds(ctx context.Context) ([]*domain.Compound, error)
	// CompoundsByNameRange half-open [from, to) on name in store collation
	CompoundsByNameRange(ctx context.Context, from, to string) ([]*domain.Compound, error)
	// CompoundsByPanel compounds whose panel list contains panel
	CompoundsByPanel(ctx context.Context, panel string) ([]*domain.Compound, error)
	CreateCompound(ctx context.Context, c *domain.Compound) (string, error)
	SaveCompound(ctx context.Context, c *domain.Compound) error
	DeleteCompound(ctx context.Context, id string) error
}

// MethodsRepository method documents
type MethodsRepository interface {
	GetMethod(ctx context.Context, id string) (*domain.Method, error)
	ListMethods(ctx context.Context) ([]*domain.Method, error)
	MethodsByPanel(ctx context.Context, panel string) ([]*domain.Method, error)
	CreateMethod(ctx context.Context, m *domain.Method) (string, error)
	SaveMethod(ctx context.Context, m *domain.Method) error
	DeleteMethod(ctx context.Context, id string) error
}

// PanelsRepository panel documents
type PanelsRepository interface {
	GetPanel(ctx context.Context, id string) (*domain.Panel, error)
	ListPanels(ctx context.Context) ([]*domain.Panel, error)
	PanelsReferencing(ctx context.Context, label string) ([]*domain.Panel, error)
	CreatePanel(ctx context.Context, p *domain.Panel) (string, error)
	SavePanel(ctx context.Context, p *domain.Panel) error
	DeletePanel(ctx context.Context, id string) error
}

func (r *Repository) GetCompound(ctx context.Context, id string) (*domain.Compound, error) {
	return getTyped[domain.Compound](ctx, r.s, CollectionCompounds, id)
}

func (r *Repository) ListCompounds(ctx context.Context) ([]*domain.Compound, error) {
	return queryTyped[domain.Compound](ctx, r.s, CollectionCompounds)
}

func (r *Repository) CompoundsByNameRange(ctx context.Context, from, to string) ([]*domain.Compound, error) {
	return queryTyped[domain.Compound](ctx, r.s, CollectionCompounds,
		store.Where("name", store.OpGreaterOrEqual, from),
		store.Where("name", store.OpLess, to))
}

func (r *Repository) CompoundsByPanel(ctx context.Context, panel string) ([]*domain.Compound, error) {
	return queryTyped[domain.Compound](ctx, r.s, CollectionCompounds,
		store.Where("panel", store.OpArrayContains, panel))
}

func (r *Repository) CreateCompound(ctx context.Context, c *domain.Compound) (string, error) {
	return create(ctx, r.s, CollectionCompounds, c)
}

func (r *Repository) SaveCompound(ctx context.Context, c *domain.Compound) error {
	return save(ctx, r.s, CollectionCompounds, c.ID, c)
}

func (r *Repository) DeleteCompound(ctx context.Context, id string) error {
	return remove(ctx, r.s, CollectionCompounds, id)
}

func (r *Repository) GetMethod(ctx context.Context, id string) (*domain.Method, error) {
	return getTyped[domain.Method](ctx, r.s, CollectionMethods, id)
}

func (r *Repository) ListMethods(ctx context.Context) ([]*domain.Method, error) {
	return queryTyped[domain.Method](ctx, r.s, CollectionMethods)
}

func (r *Repository) MethodsByPanel(ctx context.Context, panel string) ([]*domain.Method, error) {
	return queryTyped[domain.Method](ctx, r.s, CollectionMethods,
		store.Where("panel", store.OpArrayContains, panel))
}

func (r *Repository) CreateMethod(ctx context.Context, m *domain.Method) (string, error) {
	return create(ctx, r.s, CollectionMethods, m)
}

func (r *Repository) SaveMethod(ctx context.Context, m *domain.Method) error {
	return save(ctx, r.s, CollectionMethods, m.ID, m)
}

func (r *Repository) DeleteMethod(ctx context.Context, id string) error {
	return remove(ctx, r.s, CollectionMethods, id)
}

func (r *Repository) GetPanel(ctx context.Context, id string) (*domain.Panel, error) {
	return getTyped[domain.Panel](ctx, r.s, CollectionPanels, id)
}

func (r *Repository) ListPanels(ctx context.Context) ([]*domain.Panel, error) {
	return queryTyped[domain.Panel](ctx, r.s, CollectionPanels)
}

// PanelsReferencing panels whose associatedPanels contain label
func (r *Repository) PanelsReferencing(ctx context.Context, label string) ([]*domain.Panel, error) {
	return queryTyped[domain.Panel](ctx, r.s, CollectionPanels,
		store.Where("associatedPanels", store.OpArrayContains, label))
}

func (r *Repository) CreatePanel(ctx context.Context, p *domain.Panel) (string, error) {
	return create(ctx, r.s, CollectionPanels, p)
}

func (r *Repository) SavePanel(ctx context.Context, p *domain.Panel) error {
	return save(ctx, r.s, CollectionPanels, p.ID, p)
}

func (r *Repository) DeletePanel(ctx context.Context, id string) error {
	return remove(ctx, r.s, CollectionPanels, id)
}
