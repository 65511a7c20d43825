package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"medistore/internal/model"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies; prescriptions arrive base64 encoded.
const maxBodyBytes = 8 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already written, so an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to an HTTP status and writes the standard error body.
// Unclassified errors are reported as INTERNAL_ERROR without their detail.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	code := model.CodeOf(err)
	status := statusFor(code)
	message := err.Error()

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
		message = "internal server error"
	}
	event.Err(err).
		Str("code", code).
		Int("status", status).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: middleware.GetReqID(r.Context()),
	})
}

// decodeJSON decodes the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewDomainError(model.ErrCodeInvalidJSON, "Request body too large")
		}
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Invalid request body")
	}
	return nil
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON,
		model.ErrCodeValidationFailed,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeInvalidStatus,
		model.ErrCodeInvalidPaymentMethod,
		model.ErrCodeInvalidPrescription,
		model.ErrCodeTotalMismatch,
		model.ErrCodePrescriptionRequired:
		return http.StatusBadRequest
	case model.ErrCodeMedicineNotFound,
		model.ErrCodeOrderNotFound,
		model.ErrCodePrescriptionNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeSelfApproval:
		return http.StatusForbidden
	case model.ErrCodeUserExists,
		model.ErrCodeInsufficientStock,
		model.ErrCodeStatusConflict,
		model.ErrCodeInvalidStatusTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NotFound handles requests for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, model.ErrorResponse{
		Error:         model.ErrCodeRouteNotFound,
		Message:       "route not found",
		CorrelationID: middleware.GetReqID(r.Context()),
	})
}

// MethodNotAllowed handles requests with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{
		Error:         model.ErrCodeMethodNotAllowed,
		Message:       "method not allowed",
		CorrelationID: middleware.GetReqID(r.Context()),
	})
}
