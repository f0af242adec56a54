package httpapi

import (
	"net/http"

	"labcatalog/internal/auth"
	"labcatalog/internal/service"

	"go.uber.org/zap"
)

// Services backing the HTTP API
type Services struct {
	Catalog   *service.CatalogService
	Resolver  *service.Resolver
	Search    *service.SearchService
	Notes     *service.NoteService
	Transfer  *service.TransferService
	Trainings *service.TrainingService
}

// NewHandler registers every route and wraps the router in authentication
// and request metrics. metrics may be nil.
func NewHandler(svc Services, gate auth.Gate, metrics *Metrics, production bool, logger *zap.Logger) http.Handler {
	errs := ErrorWriter{Logger: logger, Production: production}

	router := NewRouter(logger)
	router.RegisterOpsRoutes(metrics)
	router.RegisterAuthRoutes(NewAuthHandler())
	router.RegisterCatalogRoutes(NewCatalogHandler(svc.Catalog, svc.Resolver, errs))
	router.RegisterSearchRoutes(NewSearchHandler(svc.Search, svc.Resolver, errs))
	router.RegisterNotesRoutes(NewNotesHandler(svc.Notes, errs))
	router.RegisterTransferRoutes(NewTransferHandler(svc.Transfer, errs))
	router.RegisterTrainingRoutes(NewTrainingHandler(svc.Trainings, errs))

	middleware := []func(http.Handler) http.Handler{Authenticate(gate, logger)}
	if metrics != nil {
		// innermost, so the mux pattern set on the request is visible to it
		middleware = append(middleware, metrics.Middleware)
	}
	return Chain(router, middleware...)
}
