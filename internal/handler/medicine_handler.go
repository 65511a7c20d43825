package handler

import (
	"net/http"

	"medistore/internal/auth"
	"medistore/internal/model"
	"medistore/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// MedicineHandler handles catalogue and inventory requests.
type MedicineHandler struct {
	service service.MedicineService
	logger  zerolog.Logger
}

// NewMedicineHandler creates a new medicine handler.
func NewMedicineHandler(service service.MedicineService, logger zerolog.Logger) *MedicineHandler {
	return &MedicineHandler{
		service: service,
		logger:  logger.With().Str("handler", "medicine").Logger(),
	}
}

// List handles GET /api/medicines requests.
func (h *MedicineHandler) List(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	// Return empty array instead of null
	if medicines == nil {
		medicines = []model.Medicine{}
	}

	writeJSON(w, http.StatusOK, medicines)
}

// Get handles GET /api/medicines/{id} requests.
func (h *MedicineHandler) Get(w http.ResponseWriter, r *http.Request) {
	medicine, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, medicine)
}

// Create handles POST /api/medicines requests.
func (h *MedicineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.MedicineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	medicine, err := h.service.Create(r.Context(), auth.ActorFrom(r.Context()), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, medicine)
}

// Update handles PUT /api/medicines/{id} requests.
func (h *MedicineHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update model.MedicineUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	medicine, err := h.service.Update(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"), &update)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, medicine)
}

// Delete handles DELETE /api/medicines/{id} requests.
func (h *MedicineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), auth.ActorFrom(r.Context()), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Restock handles POST /api/medicines/{id}/restock requests.
func (h *MedicineHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req model.RestockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	medicine, err := h.service.Restock(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, medicine)
}

// Image handles GET /api/image/{id} by redirecting to the medicine image.
func (h *MedicineHandler) Image(w http.ResponseWriter, r *http.Request) {
	target, err := h.service.ImageURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
