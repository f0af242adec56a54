package service

import (
	"context"
	"errors"
	"fmt"

	"labcatalog/internal/domain"
	"labcatalog/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const resolveConcurrency = 8

// MethodRef one resolved entry of a compound's method list. Unresolved
// entries carry a placeholder method named "unknown".
type MethodRef struct {
	domain.Method
	Resolved bool `json:"resolved"`
}

// PanelRef one resolved panel label
type PanelRef struct {
	Label            string   `json:"label"`
	ID               string   `json:"id,omitempty"`
	Name             string   `json:"name"`
	AssociatedPanels []string `json:"associatedPanels,omitempty"`
	Resolved         bool     `json:"resolved"`
}

// PanelIndex resolves a panel label given either as id or as name.
// Ids win over names; among panels sharing a name the first listed wins.
type PanelIndex struct {
	byID   map[string]*domain.Panel
	byName map[string]*domain.Panel
}

func NewPanelIndex(panels []*domain.Panel) *PanelIndex {
	idx := &PanelIndex{
		byID:   make(map[string]*domain.Panel, len(panels)),
		byName: make(map[string]*domain.Panel, len(panels)),
	}
	for _, p := range panels {
		idx.byID[p.ID] = p
		if _, ok := idx.byName[p.Name]; !ok {
			idx.byName[p.Name] = p
		}
	}
	return idx
}

func (idx *PanelIndex) Lookup(label string) (*domain.Panel, bool) {
	if p, ok := idx.byID[label]; ok {
		return p, true
	}
	p, ok := idx.byName[label]
	return p, ok
}

// ByName exact name lookup, ignoring ids.
func (idx *PanelIndex) ByName(name string) (*domain.Panel, bool) {
	p, ok := idx.byName[name]
	return p, ok
}

// Canonical returns the stored form of label: the panel name when label
// resolves, label itself otherwise.
func (idx *PanelIndex) Canonical(label string) string {
	if p, ok := idx.Lookup(label); ok {
		return p.Name
	}
	return label
}

// Resolve maps labels one to one, in order.
func (idx *PanelIndex) Resolve(labels []string) []PanelRef {
	refs := make([]PanelRef, len(labels))
	for i, label := range labels {
		p, ok := idx.Lookup(label)
		if !ok {
			refs[i] = PanelRef{Label: label, Name: label}
			continue
		}
		refs[i] = PanelRef{
			Label:            label,
			ID:               p.ID,
			Name:             p.Name,
			AssociatedPanels: p.AssociatedPanels,
			Resolved:         true,
		}
	}
	return refs
}

// Resolver reconstructs compound↔method, compound↔panel and panel↔panel links.
// It never writes.
type Resolver struct {
	methods repository.MethodsRepository
	panels  repository.PanelsRepository
	logger  *zap.Logger
}

func NewResolver(methods repository.MethodsRepository, panels repository.PanelsRepository, logger *zap.Logger) *Resolver {
	return &Resolver{methods: methods, panels: panels, logger: logger}
}

// ResolveMethodsForCompound see ResolveMethods.
func (r *Resolver) ResolveMethodsForCompound(ctx context.Context, c *domain.Compound) ([]MethodRef, error) {
	return r.ResolveMethods(ctx, c.Methods)
}

// ResolveMethods fetches every id concurrently. The result has one entry per
// input id, in input order. Missing methods become placeholders; any other
// store failure fails the whole call.
func (r *Resolver) ResolveMethods(ctx context.Context, ids []string) ([]MethodRef, error) {
	refs := make([]MethodRef, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			m, err := r.methods.GetMethod(gctx, id)
			switch {
			case err == nil:
				refs[i] = MethodRef{Method: *m, Resolved: true}
			case errors.Is(err, domain.ErrNotFound):
				refs[i] = MethodRef{Method: domain.PlaceholderMethod(id)}
			default:
				return fmt.Errorf("resolve method %s: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if missing := UnresolvedMethods(refs); len(missing) > 0 {
		r.logger.Warn("dangling method references", zap.Strings("method_ids", missing))
	}
	return refs, nil
}

// Index loads every panel into a PanelIndex.
func (r *Resolver) Index(ctx context.Context) (*PanelIndex, error) {
	panels, err := r.panels.ListPanels(ctx)
	if err != nil {
		return nil, fmt.Errorf("load panels: %w", err)
	}
	return NewPanelIndex(panels), nil
}

func (r *Resolver) ResolvePanelsForCompound(ctx context.Context, c *domain.Compound) ([]PanelRef, error) {
	idx, err := r.Index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Resolve(c.Panels), nil
}

func (r *Resolver) ResolveAssociatedPanels(ctx context.Context, p *domain.Panel) ([]PanelRef, error) {
	idx, err := r.Index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Resolve(p.AssociatedPanels), nil
}

// UnresolvedMethods ids of placeholder entries.
func UnresolvedMethods(refs []MethodRef) []string {
	var out []string
	for _, ref := range refs {
		if !ref.Resolved {
			out = append(out, ref.ID)
		}
	}
	return out
}

// UnresolvedPanels labels of placeholder entries.
func UnresolvedPanels(refs []PanelRef) []string {
	var out []string
	for _, ref := range refs {
		if !ref.Resolved {
			out = append(out, ref.Label)
		}
	}
	return out
}

// Warning builds a PartialResolutionWarning, or nil when nothing is unresolved.
func Warning(kind string, unresolved []string) *domain.PartialResolutionWarning {
	if len(unresolved) == 0 {
		return nil
	}
	return &domain.PartialResolutionWarning{Kind: kind, Unresolved: unresolved}
}

// DanglingReference one compound reference that does not resolve.
type DanglingReference struct {
	CompoundID string `json:"compoundId"`
	Compound   string `json:"compound"`
	Kind       string `json:"kind"` // method | panel
	Ref        string `json:"ref"`
}

// Audit lists every unresolved method and panel reference of compounds,
// in compound order.
func (r *Resolver) Audit(ctx context.Context, compounds []*domain.Compound) ([]DanglingReference, error) {
	idx, err := r.Index(ctx)
	if err != nil {
		return nil, err
	}
	var out []DanglingReference
	for _, c := range compounds {
		refs, err := r.ResolveMethodsForCompound(ctx, c)
		if err != nil {
			return nil, err
		}
		for _, id := range UnresolvedMethods(refs) {
			out = append(out, DanglingReference{CompoundID: c.ID, Compound: c.Name, Kind: "method", Ref: id})
		}
		for _, label := range UnresolvedPanels(idx.Resolve(c.Panels)) {
			out = append(out, DanglingReference{CompoundID: c.ID, Compound: c.Name, Kind: "panel", Ref: label})
		}
	}
	return out, nil
}
