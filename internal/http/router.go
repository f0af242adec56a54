package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router stdlib http.ServeMux with method patterns.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers a plain http.Handler (metrics endpoint).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) RegisterOpsRoutes(metrics *Metrics) {
	r.Handle("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
	if metrics != nil {
		r.HandleHandler("GET /metrics", metrics.Handler())
	}
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("GET "+authCheckPath, h.AuthCheck)
}

func (r *Router) RegisterCatalogRoutes(h *CatalogHandler) {
	r.Handle("GET /api/compounds", h.ListCompounds)
	r.Handle("POST /api/compounds", h.CreateCompound)
	r.Handle("GET /api/compounds/{id}", h.GetCompound)
	r.Handle("PUT /api/compounds/{id}", h.UpdateCompound)
	r.Handle("DELETE /api/compounds/{id}", h.DeleteCompound)
	r.Handle("GET /api/compounds/{id}/methods", h.CompoundMethods)
	r.Handle("GET /api/compounds/{id}/panels", h.CompoundPanels)
	r.Handle("POST /api/add-compound", h.AddCompound)

	r.Handle("GET /api/methods", h.ListMethods)
	r.Handle("POST /api/methods", h.CreateMethod)
	r.Handle("GET /api/methods/{id}", h.GetMethod)
	r.Handle("PUT /api/methods/{id}", h.UpdateMethod)
	r.Handle("DELETE /api/methods/{id}", h.DeleteMethod)

	r.Handle("GET /api/panels", h.ListPanels)
	r.Handle("POST /api/panels", h.CreatePanel)
	r.Handle("GET /api/panels/{id}", h.GetPanel)
	r.Handle("PUT /api/panels/{id}", h.UpdatePanel)
	r.Handle("DELETE /api/panels/{id}", h.DeletePanel)
	r.Handle("GET /api/panels/{id}/associated", h.AssociatedPanels)
}

func (r *Router) RegisterSearchRoutes(h *SearchHandler) {
	r.Handle("POST /api/search", h.Search)
	r.Handle("POST /api/compounds-by-letter", h.CompoundsByLetter)
	r.Handle("POST /api/compounds-by-panel", h.CompoundsByPanel)
	r.Handle("POST /api/method-details", h.MethodDetails)
	r.Handle("GET /api/panel-groups", h.PanelGroups)
}

func (r *Router) RegisterNotesRoutes(h *NotesHandler) {
	r.Handle("GET /api/notes", h.ListNotes)
	r.Handle("GET /api/notes/{id}", h.GetNote)
	r.Handle("PUT /api/notes/{id}", h.UpdateNote)
	r.Handle("POST /api/save-notes", h.SaveNote)
}

func (r *Router) RegisterTransferRoutes(h *TransferHandler) {
	r.Handle("POST /api/import-data", h.Import)
	r.Handle("POST /api/export-data", h.Export)
}

func (r *Router) RegisterTrainingRoutes(h *TrainingHandler) {
	r.Handle("GET /api/employees", h.ListEmployees)
	r.Handle("GET /api/employees/{id}", h.GetEmployee)
	r.Handle("GET /api/employee-trainings/{employeeId}", h.EmployeeTrainings)
	r.Handle("GET /api/training-types", h.TrainingTypes)
	r.Handle("GET /api/jobs", h.ListJobs)
	r.Handle("POST /api/update-employee-trainings", h.ReplaceTrainings)
	r.Handle("POST /api/schedule-training", h.ScheduleTraining)
}
