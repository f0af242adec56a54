package repository

import (
	"context"

	"labcatalog/internal/domain"
	"labcatalog/internal/store"
)

// TrainingRepository employee roster, trainings and jobs
type TrainingRepository interface {
	ListEmployees(ctx context.Context) ([]*domain.Employee, error)
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	ListJobs(ctx context.Context) ([]*domain.Job, error)
	ListTrainings(ctx context.Context) ([]*domain.Training, error)
	TrainingsForEmployee(ctx context.Context, employeeID string) ([]*domain.Training, error)
	CreateTraining(ctx context.Context, t *domain.Training) (string, error)
}

func (r *Repository) ListEmployees(ctx context.Context) ([]*domain.Employee, error) {
	return queryTyped[domain.Employee](ctx, r.s, CollectionEmployees)
}

func (r *Repository) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	return getTyped[domain.Employee](ctx, r.s, CollectionEmployees, id)
}

func (r *Repository) ListJobs(ctx context.Context) ([]*domain.Job, error) {
	return queryTyped[domain.Job](ctx, r.s, CollectionJobs)
}

func (r *Repository) ListTrainings(ctx context.Context) ([]*domain.Training, error) {
	return queryTyped[domain.Training](ctx, r.s, CollectionTrainings)
}

func (r *Repository) TrainingsForEmployee(ctx context.Context, employeeID string) ([]*domain.Training, error) {
	return queryTyped[domain.Training](ctx, r.s, CollectionTrainings,
		store.Where("employeeId", store.OpEqual, employeeID))
}

func (r *Repository) CreateTraining(ctx context.Context, t *domain.Training) (string, error) {
	return create(ctx, r.s, CollectionTrainings, t)
}
