package httpapi

import (
	"net/http"

	"labcatalog/internal/service"
)

// TrainingHandler employee roster and trainings
type TrainingHandler struct {
	trainings *service.TrainingService
	ErrorWriter
}

func NewTrainingHandler(trainings *service.TrainingService, errs ErrorWriter) *TrainingHandler {
	return &TrainingHandler{trainings: trainings, ErrorWriter: errs}
}

func (h *TrainingHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	items, err := h.trainings.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *TrainingHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.trainings.GetEmployee(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(e))
}

func (h *TrainingHandler) EmployeeTrainings(w http.ResponseWriter, r *http.Request) {
	ts, err := h.trainings.TrainingsForEmployee(r.Context(), r.PathValue("employeeId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(ts))
}

func (h *TrainingHandler) TrainingTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.trainings.TrainingTypes(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(types))
}

func (h *TrainingHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.trainings.ListJobs(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(jobs))
}

func (h *TrainingHandler) ReplaceTrainings(w http.ResponseWriter, r *http.Request) {
	var req service.ReplaceTrainingsRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.trainings.ReplaceEmployeeTrainings(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *TrainingHandler) ScheduleTraining(w http.ResponseWriter, r *http.Request) {
	var req service.ScheduleTrainingRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.trainings.ScheduleTraining(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(t))
}
