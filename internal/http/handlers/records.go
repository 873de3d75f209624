package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hongminglow/health-risk-be/internal/http/respond"
	"github.com/hongminglow/health-risk-be/internal/middleware"
	"github.com/hongminglow/health-risk-be/internal/models"
	"github.com/hongminglow/health-risk-be/internal/models/dto"
	"github.com/hongminglow/health-risk-be/internal/records"
)

// RecordService is the record surface used by RecordHandler.
type RecordService interface {
	Predict(ctx context.Context, in models.FeatureInput) (records.Prediction, error)
	Create(ctx context.Context, owner uuid.UUID, in models.FeatureInput, opts records.CreateOptions) (models.HealthRecord, error)
	List(ctx context.Context, owner uuid.UUID) ([]models.HealthRecord, error)
	Get(ctx context.Context, owner, id uuid.UUID) (models.HealthRecord, error)
	Update(ctx context.Context, owner, id uuid.UUID, in models.FeatureInput) (models.HealthRecord, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

// RecordHandler serves scoring and the caller's own health records.
type RecordHandler struct {
	svc RecordService
}

// NewRecordHandler constructs the handler.
func NewRecordHandler(svc RecordService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

// Routes attaches /predict and the authed /records routes to r.
func (h *RecordHandler) Routes(r chi.Router, authed func(http.Handler) http.Handler) {
	r.Post("/predict", h.handlePredict)
	r.Route("/records", func(r chi.Router) {
		r.Use(authed)
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/my-records", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}", h.handleUpdate)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *RecordHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var in models.FeatureInput
	if !decodeJSON(w, r, &in) {
		return
	}
	pred, err := h.svc.Predict(r.Context(), in)
	if err != nil {
		if !respondInvalid(w, err) {
			respondInternal(w, r, "predict", err)
		}
		return
	}
	respond.JSON(w, http.StatusOK, "prediction successful", dto.PredictResponse{Features: pred.Features, Outcomes: pred.Outcomes})
}

func (h *RecordHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	var req dto.RecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.svc.Create(r.Context(), user.ID, req.FeatureInput, records.CreateOptions{CreatedAt: req.CreatedAt})
	if err != nil {
		if !respondInvalid(w, err) {
			respondInternal(w, r, "create record", err)
		}
		return
	}
	respond.JSON(w, http.StatusCreated, "record created", rec)
}

func (h *RecordHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	recs, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		respondInternal(w, r, "list records", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", recs)
}

func (h *RecordHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Get(r.Context(), user.ID, id)
	if err != nil {
		h.recordError(w, r, "get record", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", rec)
}

func (h *RecordHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var in models.FeatureInput
	if !decodeJSON(w, r, &in) {
		return
	}
	rec, err := h.svc.Update(r.Context(), user.ID, id, in)
	if err != nil {
		h.recordError(w, r, "update record", err)
		return
	}
	respond.JSON(w, http.StatusOK, "record updated", rec)
}

func (h *RecordHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), user.ID, id); err != nil {
		h.recordError(w, r, "delete record", err)
		return
	}
	respond.JSON(w, http.StatusOK, "record deleted", nil)
}

func (h *RecordHandler) recordError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, records.ErrRecordNotFound):
		respond.Error(w, http.StatusNotFound, "record not found")
	case respondInvalid(w, err):
	default:
		respondInternal(w, r, op, err)
	}
}

// recordID parses the {id} path parameter. Malformed ids cannot name a
// record, so they answer 404.
func recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "record not found")
		return uuid.Nil, false
	}
	return id, true
}
