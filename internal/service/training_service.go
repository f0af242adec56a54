package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"labcatalog/internal/auth"
	"labcatalog/internal/domain"
	"labcatalog/internal/notify"
	"labcatalog/internal/repository"
	"labcatalog/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Defaults applied to scheduled trainings.
const (
	defaultTrainingLocation = "On Site"
	defaultTrainingType     = "Equipment"
	notApplicable           = "NA"
)

// TrainingStore repositories behind the training roster
type TrainingStore interface {
	repository.TrainingRepository
	repository.Batcher
}

// TrainingService employee roster and training records.
type TrainingService struct {
	repo      TrainingStore
	publisher notify.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewTrainingService(repo TrainingStore, publisher notify.Publisher, logger *zap.Logger) *TrainingService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &TrainingService{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// EmployeeItem list entry for GET /api/employees
type EmployeeItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job,omitempty"`
}

func (s *TrainingService) ListEmployees(ctx context.Context) ([]EmployeeItem, error) {
	emps, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	items := make([]EmployeeItem, 0, len(emps))
	for _, e := range emps {
		items = append(items, EmployeeItem{ID: e.ID, Name: e.DisplayName(), Job: e.Trade})
	}
	col := collate.New(language.English)
	sort.SliceStable(items, func(i, j int) bool { return col.CompareString(items[i].Name, items[j].Name) < 0 })
	return items, nil
}

func (s *TrainingService) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	e, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

func (s *TrainingService) ListJobs(ctx context.Context) ([]*domain.Job, error) {
	jobs, err := s.repo.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// TrainingsForEmployee ordered by date then training name.
func (s *TrainingService) TrainingsForEmployee(ctx context.Context, employeeID string) ([]*domain.Training, error) {
	ts, err := s.repo.TrainingsForEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainings: %w", err)
	}
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].Date != ts[j].Date {
			return ts[i].Date < ts[j].Date
		}
		return ts[i].Training < ts[j].Training
	})
	return ts, nil
}

// TrainingTypes distinct training names across all employees, sorted.
func (s *TrainingService) TrainingTypes(ctx context.Context) ([]string, error) {
	ts, err := s.repo.ListTrainings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainings: %w", err)
	}
	seen := map[string]bool{}
	out := []string{}
	for _, t := range ts {
		if t.Training != "" && !seen[t.Training] {
			seen[t.Training] = true
			out = append(out, t.Training)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ReplaceTrainingsRequest body of POST /api/update-employee-trainings
type ReplaceTrainingsRequest struct {
	EmployeeID string   `json:"employeeId" validate:"notblank"`
	Trainings  []string `json:"trainings"`
}

// ReplaceTrainingsResult what a replace changed
type ReplaceTrainingsResult struct {
	Added   int `json:"added"`
	Kept    int `json:"kept"`
	Removed int `json:"removed"`
}

// ReplaceEmployeeTrainings makes the employee's trainings exactly the given
// set in one batch. Training ids derive from employee and training name, so
// kept trainings keep their date and repeating the call writes nothing.
func (s *TrainingService) ReplaceEmployeeTrainings(ctx context.Context, req ReplaceTrainingsRequest) (*ReplaceTrainingsResult, error) {
	if _, err := auth.RequireAdmin(ctx, "update trainings"); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	employeeID := strings.TrimSpace(req.EmployeeID)
	if _, err := s.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	current, err := s.repo.TrainingsForEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainings: %w", err)
	}
	existing := make(map[string]bool, len(current))
	for _, t := range current {
		existing[t.ID] = true
	}

	res := &ReplaceTrainingsResult{}
	wanted := map[string]bool{}
	var ops []store.WriteOp
	today := s.now().Format(time.DateOnly)
	for _, name := range cleanList(req.Trainings) {
		id := TrainingID(employeeID, name)
		if wanted[id] {
			continue // exact repeat of a name already listed
		}
		wanted[id] = true
		if existing[id] {
			res.Kept++
			continue
		}
		op, err := repository.SetOp(repository.CollectionTrainings, id, &domain.Training{
			EmployeeID: employeeID,
			Training:   name,
			Date:       today,
		})
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		res.Added++
	}
	for _, t := range current {
		if !wanted[t.ID] {
			ops = append(ops, store.DeleteOp(repository.CollectionTrainings, t.ID))
			res.Removed++
		}
	}

	if len(ops) > 0 {
		if err := s.repo.Batch(ctx, ops); err != nil {
			return nil, fmt.Errorf("failed to replace trainings: %w", err)
		}
	}
	s.logger.Info("trainings replaced",
		zap.String("employee_id", employeeID),
		zap.Int("added", res.Added),
		zap.Int("kept", res.Kept),
		zap.Int("removed", res.Removed),
	)
	if err := s.publisher.Publish(ctx, notify.Event{
		Type:    notify.EventTrainingsReplaced,
		Subject: employeeID,
		Payload: map[string]any{"count": len(wanted), "added": res.Added, "removed": res.Removed},
	}); err != nil {
		s.logger.Warn("trainings event not delivered", zap.Error(err))
	}
	return res, nil
}

// ScheduleTrainingRequest body of POST /api/schedule-training
type ScheduleTrainingRequest struct {
	EmployeeID   string `json:"employeeId" validate:"notblank"`
	TrainingType string `json:"trainingType" validate:"notblank"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ScheduleTraining adds one training record with the roster defaults.
func (s *TrainingService) ScheduleTraining(ctx context.Context, req ScheduleTrainingRequest) (*domain.Training, error) {
	if _, err := auth.RequireAdmin(ctx, "schedule training"); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	t := &domain.Training{
		EmployeeID:       strings.TrimSpace(req.EmployeeID),
		Training:         strings.TrimSpace(req.TrainingType),
		Date:             req.Date,
		Type:             defaultTrainingType,
		Location:         defaultTrainingLocation,
		Site:             notApplicable,
		Trade:            notApplicable,
		Expiration:       notApplicable,
		Prerequisites:    notApplicable,
		EmploymentLength: notApplicable,
	}
	id, err := s.repo.CreateTraining(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule training: %w", err)
	}
	t.ID = id
	s.logger.Info("training scheduled", zap.String("employee_id", t.EmployeeID), zap.String("training", t.Training), zap.String("date", t.Date))
	return t, nil
}

// trainingNamespace scopes TrainingID hashes.
var trainingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("labcatalog:trainings"))

// TrainingID deterministic training document id for one exact
// (employee, training name) pair. Names differing in case or punctuation get
// distinct ids.
func TrainingID(employeeID, training string) string {
	return uuid.NewSHA1(trainingNamespace, []byte(employeeID+"\x00"+training)).String()
}
