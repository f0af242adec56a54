package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"labcatalog/internal/auth"
	"labcatalog/internal/domain"
	"labcatalog/internal/repository"
	"labcatalog/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CatalogStore repositories the catalog service writes through
type CatalogStore interface {
	repository.CompoundsRepository
	repository.MethodsRepository
	repository.PanelsRepository
	repository.Batcher
}

// CacheInvalidator drops derived read models after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// CatalogService compound, method and panel CRUD. Writes are admin only;
// deletes never cascade, so references may dangle afterwards.
type CatalogService struct {
	repo     CatalogStore
	resolver *Resolver
	cache    CacheInvalidator
	logger   *zap.Logger
	newID    func() string
}

func NewCatalogService(repo CatalogStore, resolver *Resolver, cache CacheInvalidator, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, resolver: resolver, cache: cache, logger: logger, newID: uuid.NewString}
}

// CompoundInput editable compound fields
type CompoundInput struct {
	Name    string   `json:"name" validate:"notblank"`
	CAS     string   `json:"cas"`
	Methods []string `json:"methods"`
	Panels  []string `json:"panel"`
}

// PanelInput editable panel fields
type PanelInput struct {
	Name             string   `json:"name" validate:"notblank"`
	AssociatedPanels []string `json:"associatedPanels"`
}

// AddCompoundRequest compound plus inline methods created with it
type AddCompoundRequest struct {
	Name    string          `json:"name" validate:"notblank"`
	CAS     string          `json:"cas"`
	Panels  []string        `json:"panel"`
	Methods []domain.Method `json:"methods"`
}

// ========== Compounds ==========

func (s *CatalogService) ListCompounds(ctx context.Context) ([]*domain.Compound, error) {
	cs, err := s.repo.ListCompounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list compounds: %w", err)
	}
	sortCompounds(cs)
	return cs, nil
}

func (s *CatalogService) GetCompound(ctx context.Context, id string) (*domain.Compound, error) {
	c, err := s.repo.GetCompound(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get compound: %w", err)
	}
	return c, nil
}

func (s *CatalogService) CreateCompound(ctx context.Context, in CompoundInput) (*domain.Compound, error) {
	if _, err := auth.RequireAdmin(ctx, "create compound"); err != nil {
		return nil, err
	}
	c, err := s.buildCompound(ctx, "", in)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateCompound(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to create compound: %w", err)
	}
	c.ID = id
	s.written(ctx, "compound created", id)
	return c, nil
}

// UpdateCompound replaces every editable field of an existing compound.
func (s *CatalogService) UpdateCompound(ctx context.Context, id string, in CompoundInput) (*domain.Compound, error) {
	if _, err := auth.RequireAdmin(ctx, "update compound"); err != nil {
		return nil, err
	}
	if _, err := s.GetCompound(ctx, id); err != nil {
		return nil, err
	}
	c, err := s.buildCompound(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveCompound(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update compound: %w", err)
	}
	s.written(ctx, "compound updated", id)
	return c, nil
}

func (s *CatalogService) DeleteCompound(ctx context.Context, id string) error {
	if _, err := auth.RequireAdmin(ctx, "delete compound"); err != nil {
		return err
	}
	if _, err := s.GetCompound(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCompound(ctx, id); err != nil {
		return fmt.Errorf("failed to delete compound: %w", err)
	}
	s.written(ctx, "compound deleted", id)
	return nil
}

func (s *CatalogService) buildCompound(ctx context.Context, id string, in CompoundInput) (*domain.Compound, error) {
	if err := validateRequest(in); err != nil {
		return nil, err
	}
	idx, err := s.resolver.Index(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Compound{
		ID:      id,
		Name:    strings.TrimSpace(in.Name),
		CAS:     strings.TrimSpace(in.CAS),
		Methods: cleanList(in.Methods),
		Panels:  canonicalPanels(idx, in.Panels),
	}, nil
}

// AddCompoundWithMethods creates the inline methods and the compound
// referencing them in one batch.
func (s *CatalogService) AddCompoundWithMethods(ctx context.Context, req AddCompoundRequest) (*domain.Compound, []*domain.Method, error) {
	if _, err := auth.RequireAdmin(ctx, "add compound"); err != nil {
		return nil, nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, nil, err
	}
	idx, err := s.resolver.Index(ctx)
	if err != nil {
		return nil, nil, err
	}

	ops := make([]store.WriteOp, 0, len(req.Methods)+1)
	methods := make([]*domain.Method, 0, len(req.Methods))
	c := &domain.Compound{
		ID:      s.newID(),
		Name:    strings.TrimSpace(req.Name),
		CAS:     strings.TrimSpace(req.CAS),
		Methods: []string{},
		Panels:  canonicalPanels(idx, req.Panels),
	}
	for i := range req.Methods {
		m, err := buildMethod(idx, s.newID(), req.Methods[i])
		if err != nil {
			return nil, nil, fmt.Errorf("methods[%d]: %w", i, err)
		}
		op, err := repository.SetOp(repository.CollectionMethods, m.ID, m)
		if err != nil {
			return nil, nil, err
		}
		ops = append(ops, op)
		methods = append(methods, m)
		c.Methods = append(c.Methods, m.ID)
	}
	op, err := repository.SetOp(repository.CollectionCompounds, c.ID, c)
	if err != nil {
		return nil, nil, err
	}
	ops = append(ops, op)

	if err := s.repo.Batch(ctx, ops); err != nil {
		return nil, nil, fmt.Errorf("failed to add compound: %w", err)
	}
	s.written(ctx, "compound added with methods", c.ID)
	return c, methods, nil
}

// ========== Methods ==========

func (s *CatalogService) ListMethods(ctx context.Context) ([]*domain.Method, error) {
	ms, err := s.repo.ListMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list methods: %w", err)
	}
	col := collate.New(language.English)
	sort.SliceStable(ms, func(i, j int) bool {
		if c := col.CompareString(ms[i].Name, ms[j].Name); c != 0 {
			return c < 0
		}
		return ms[i].ID < ms[j].ID
	})
	return ms, nil
}

func (s *CatalogService) GetMethod(ctx context.Context, id string) (*domain.Method, error) {
	m, err := s.repo.GetMethod(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get method: %w", err)
	}
	return m, nil
}

func (s *CatalogService) CreateMethod(ctx context.Context, in domain.Method) (*domain.Method, error) {
	if _, err := auth.RequireAdmin(ctx, "create method"); err != nil {
		return nil, err
	}
	idx, err := s.resolver.Index(ctx)
	if err != nil {
		return nil, err
	}
	m, err := buildMethod(idx, "", in)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateMethod(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create method: %w", err)
	}
	m.ID = id
	s.written(ctx, "method created", id)
	return m, nil
}

func (s *CatalogService) UpdateMethod(ctx context.Context, id string, in domain.Method) (*domain.Method, error) {
	if _, err := auth.RequireAdmin(ctx, "update method"); err != nil {
		return nil, err
	}
	if _, err := s.GetMethod(ctx, id); err != nil {
		return nil, err
	}
	idx, err := s.resolver.Index(ctx)
	if err != nil {
		return nil, err
	}
	m, err := buildMethod(idx, id, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveMethod(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update method: %w", err)
	}
	s.written(ctx, "method updated", id)
	return m, nil
}

// DeleteMethod leaves compounds pointing at id; they resolve to "unknown".
func (s *CatalogService) DeleteMethod(ctx context.Context, id string) error {
	if _, err := auth.RequireAdmin(ctx, "delete method"); err != nil {
		return err
	}
	if _, err := s.GetMethod(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteMethod(ctx, id); err != nil {
		return fmt.Errorf("failed to delete method: %w", err)
	}
	s.written(ctx, "method deleted", id)
	return nil
}

func buildMethod(idx *PanelIndex, id string, in domain.Method) (*domain.Method, error) {
	m := in
	m.ID = id
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, domain.Validationf("method is required")
	}
	m.Panels = canonicalPanels(idx, in.Panels)
	return &m, nil
}

// ========== Panels ==========

func (s *CatalogService) ListPanels(ctx context.Context) ([]*domain.Panel, error) {
	ps, err := s.repo.ListPanels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	col := collate.New(language.English)
	sort.SliceStable(ps, func(i, j int) bool {
		if c := col.CompareString(ps[i].Name, ps[j].Name); c != 0 {
			return c < 0
		}
		return ps[i].ID < ps[j].ID
	})
	return ps, nil
}

func (s *CatalogService) GetPanel(ctx context.Context, id string) (*domain.Panel, error) {
	p, err := s.repo.GetPanel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get panel: %w", err)
	}
	return p, nil
}

func (s *CatalogService) CreatePanel(ctx context.Context, in PanelInput) (*domain.Panel, error) {
	if _, err := auth.RequireAdmin(ctx, "create panel"); err != nil {
		return nil, err
	}
	if err := validateRequest(in); err != nil {
		return nil, err
	}
	idx, err := s.resolver.Index(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if _, exists := idx.ByName(name); exists {
		return nil, domain.Validationf("panel %q already exists", name)
	}
	p := &domain.Panel{Name: name, AssociatedPanels: canonicalPanels(idx, in.AssociatedPanels)}
	id, err := s.repo.CreatePanel(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create panel: %w", err)
	}
	p.ID = id
	s.written(ctx, "panel created", id)
	return p, nil
}

// UpdatePanel replaces the panel. A rename rewrites the old name in every
// compound, method and panel list that carries it, in the same batch.
func (s *CatalogService) UpdatePanel(ctx context.Context, id string, in PanelInput) (*domain.Panel, error) {
	if _, err := auth.RequireAdmin(ctx, "update panel"); err != nil {
		return nil, err
	}
	if err := validateRequest(in); err != nil {
		return nil, err
	}
	old, err := s.GetPanel(ctx, id)
	if err != nil {
		return nil, err
	}
	idx, err := s.resolver.Index(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if other, exists := idx.ByName(name); exists && other.ID != id {
		return nil, domain.Validationf("panel %q already exists", name)
	}

	p := &domain.Panel{ID: id, Name: name, AssociatedPanels: canonicalPanels(idx, in.AssociatedPanels)}
	op, err := repository.SetOp(repository.CollectionPanels, id, p)
	if err != nil {
		return nil, err
	}
	ops := []store.WriteOp{op}
	if old.Name != name {
		cascade, err := s.renameOps(ctx, id, old.Name, name)
		if err != nil {
			return nil, err
		}
		ops = append(ops, cascade...)
	}
	if err := s.repo.Batch(ctx, ops); err != nil {
		return nil, fmt.Errorf("failed to update panel: %w", err)
	}
	if len(ops) > 1 {
		s.logger.Info("panel renamed", zap.String("panel_id", id), zap.String("from", old.Name), zap.String("to", name), zap.Int("rewritten", len(ops)-1))
	}
	s.written(ctx, "panel updated", id)
	return p, nil
}

func (s *CatalogService) renameOps(ctx context.Context, panelID, from, to string) ([]store.WriteOp, error) {
	var ops []store.WriteOp
	compounds, err := s.repo.CompoundsByPanel(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("rename panel: %w", err)
	}
	for _, c := range compounds {
		c.Panels = replaceLabel(c.Panels, from, to)
		op, err := repository.SetOp(repository.CollectionCompounds, c.ID, c)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	methods, err := s.repo.MethodsByPanel(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("rename panel: %w", err)
	}
	for _, m := range methods {
		m.Panels = replaceLabel(m.Panels, from, to)
		op, err := repository.SetOp(repository.CollectionMethods, m.ID, m)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	panels, err := s.repo.PanelsReferencing(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("rename panel: %w", err)
	}
	for _, p := range panels {
		if p.ID == panelID {
			continue
		}
		p.AssociatedPanels = replaceLabel(p.AssociatedPanels, from, to)
		op, err := repository.SetOp(repository.CollectionPanels, p.ID, p)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// DeletePanel leaves labels referencing the panel in place.
func (s *CatalogService) DeletePanel(ctx context.Context, id string) error {
	if _, err := auth.RequireAdmin(ctx, "delete panel"); err != nil {
		return err
	}
	if _, err := s.GetPanel(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeletePanel(ctx, id); err != nil {
		return fmt.Errorf("failed to delete panel: %w", err)
	}
	s.written(ctx, "panel deleted", id)
	return nil
}

func (s *CatalogService) written(ctx context.Context, msg, id string) {
	s.logger.Info(msg, zap.String("id", id))
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// canonicalPanels stores panel labels by name; ids are translated through idx.
func canonicalPanels(idx *PanelIndex, labels []string) []string {
	cleaned := cleanList(labels)
	for i, l := range cleaned {
		cleaned[i] = idx.Canonical(l)
	}
	return cleaned
}

func replaceLabel(labels []string, from, to string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		if l == from {
			l = to
		}
		out[i] = l
	}
	return out
}
