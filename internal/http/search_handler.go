package httpapi

import (
	"net/http"

	"labcatalog/internal/domain"
	"labcatalog/internal/service"
)

// SearchHandler search, browse and method-detail lookups
type SearchHandler struct {
	search   *service.SearchService
	resolver *service.Resolver
	ErrorWriter
}

func NewSearchHandler(search *service.SearchService, resolver *service.Resolver, errs ErrorWriter) *SearchHandler {
	return &SearchHandler{search: search, resolver: resolver, ErrorWriter: errs}
}

type searchRequest struct {
	SearchTerm string `json:"searchTerm"`
}

type letterRequest struct {
	Letter string `json:"letter"`
	Page   int    `json:"page"`
}

type panelRequest struct {
	Panel string `json:"panel"`
	Page  int    `json:"page"`
}

type methodDetailsRequest struct {
	MethodIDs []string `json:"methodIds"`
}

type methodDetailsResult struct {
	Methods []service.MethodRef              `json:"methods"`
	Warning *domain.PartialResolutionWarning `json:"warning,omitempty"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	cs, err := h.search.Search(r.Context(), req.SearchTerm)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(cs))
}

// CompoundsByLetter page defaults to 1; the query string ?page= is honoured
// when the body has none.
func (h *SearchHandler) CompoundsByLetter(w http.ResponseWriter, r *http.Request) {
	var req letterRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	page := req.Page
	if page == 0 {
		page = queryInt(r, "page", 1)
	}
	res, err := h.search.BrowseByLetter(r.Context(), req.Letter, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *SearchHandler) CompoundsByPanel(w http.ResponseWriter, r *http.Request) {
	var req panelRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	page := req.Page
	if page == 0 {
		page = queryInt(r, "page", 1)
	}
	res, err := h.search.BrowseByPanel(r.Context(), req.Panel, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// MethodDetails resolves methodIds in order; unknown ids yield placeholders.
func (h *SearchHandler) MethodDetails(w http.ResponseWriter, r *http.Request) {
	var req methodDetailsRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	refs, err := h.resolver.ResolveMethods(r.Context(), req.MethodIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	warning := service.Warning("method", service.UnresolvedMethods(refs))
	writeJSON(w, http.StatusOK, Warn(methodDetailsResult{Methods: refs, Warning: warning}, warning))
}

func (h *SearchHandler) PanelGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.search.PanelGroups(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(groups))
}
