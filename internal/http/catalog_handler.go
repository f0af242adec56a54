package httpapi

import (
	"net/http"

	"labcatalog/internal/domain"
	"labcatalog/internal/service"
)

// CatalogHandler compound, method and panel endpoints
type CatalogHandler struct {
	catalog  *service.CatalogService
	resolver *service.Resolver
	ErrorWriter
}

func NewCatalogHandler(catalog *service.CatalogService, resolver *service.Resolver, errs ErrorWriter) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, resolver: resolver, ErrorWriter: errs}
}

type deletedResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type compoundMethodsResult struct {
	CompoundID string                           `json:"compoundId"`
	Methods    []service.MethodRef              `json:"methods"`
	Warning    *domain.PartialResolutionWarning `json:"warning,omitempty"`
}

type panelRefsResult struct {
	ID      string                           `json:"id"`
	Panels  []service.PanelRef               `json:"panels"`
	Warning *domain.PartialResolutionWarning `json:"warning,omitempty"`
}

type addCompoundResult struct {
	Compound *domain.Compound `json:"compound"`
	Methods  []*domain.Method `json:"methods"`
}

// ========== Compounds ==========

func (h *CatalogHandler) ListCompounds(w http.ResponseWriter, r *http.Request) {
	cs, err := h.catalog.ListCompounds(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(cs))
}

func (h *CatalogHandler) GetCompound(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.GetCompound(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(c))
}

func (h *CatalogHandler) CreateCompound(w http.ResponseWriter, r *http.Request) {
	var in service.CompoundInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.catalog.CreateCompound(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(c))
}

func (h *CatalogHandler) UpdateCompound(w http.ResponseWriter, r *http.Request) {
	var in service.CompoundInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.catalog.UpdateCompound(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(c))
}

func (h *CatalogHandler) DeleteCompound(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.catalog.DeleteCompound(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(deletedResult{ID: id, Deleted: true}))
}

// CompoundMethods resolves the compound's method ids; dangling ids come back
// as "unknown" placeholders with a warning.
func (h *CatalogHandler) CompoundMethods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.catalog.GetCompound(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	refs, err := h.resolver.ResolveMethodsForCompound(ctx, c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	warning := service.Warning("method", service.UnresolvedMethods(refs))
	writeJSON(w, http.StatusOK, Warn(compoundMethodsResult{CompoundID: c.ID, Methods: refs, Warning: warning}, warning))
}

func (h *CatalogHandler) CompoundPanels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.catalog.GetCompound(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	refs, err := h.resolver.ResolvePanelsForCompound(ctx, c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	warning := service.Warning("panel", service.UnresolvedPanels(refs))
	writeJSON(w, http.StatusOK, Warn(panelRefsResult{ID: c.ID, Panels: refs, Warning: warning}, warning))
}

func (h *CatalogHandler) AddCompound(w http.ResponseWriter, r *http.Request) {
	var req service.AddCompoundRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, methods, err := h.catalog.AddCompoundWithMethods(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(addCompoundResult{Compound: c, Methods: methods}))
}

// ========== Methods ==========

func (h *CatalogHandler) ListMethods(w http.ResponseWriter, r *http.Request) {
	ms, err := h.catalog.ListMethods(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(ms))
}

func (h *CatalogHandler) GetMethod(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.GetMethod(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

func (h *CatalogHandler) CreateMethod(w http.ResponseWriter, r *http.Request) {
	var in domain.Method
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.catalog.CreateMethod(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(m))
}

func (h *CatalogHandler) UpdateMethod(w http.ResponseWriter, r *http.Request) {
	var in domain.Method
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.catalog.UpdateMethod(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

func (h *CatalogHandler) DeleteMethod(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.catalog.DeleteMethod(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(deletedResult{ID: id, Deleted: true}))
}

// ========== Panels ==========

func (h *CatalogHandler) ListPanels(w http.ResponseWriter, r *http.Request) {
	ps, err := h.catalog.ListPanels(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(ps))
}

func (h *CatalogHandler) GetPanel(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetPanel(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *CatalogHandler) CreatePanel(w http.ResponseWriter, r *http.Request) {
	var in service.PanelInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.catalog.CreatePanel(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(p))
}

func (h *CatalogHandler) UpdatePanel(w http.ResponseWriter, r *http.Request) {
	var in service.PanelInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.catalog.UpdatePanel(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *CatalogHandler) DeletePanel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.catalog.DeletePanel(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(deletedResult{ID: id, Deleted: true}))
}

func (h *CatalogHandler) AssociatedPanels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.catalog.GetPanel(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	refs, err := h.resolver.ResolveAssociatedPanels(ctx, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	warning := service.Warning("panel", service.UnresolvedPanels(refs))
	writeJSON(w, http.StatusOK, Warn(panelRefsResult{ID: p.ID, Panels: refs, Warning: warning}, warning))
}
