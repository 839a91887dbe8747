package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/infra/http/middleware"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	OK               bool          `json:"ok"`
	Error            string        `json:"error"`
	Message          string        `json:"message"`
	Details          []ErrorDetail `json:"details,omitempty"`
	CurrentUpdatedAt *time.Time    `json:"currentUpdatedAt,omitempty"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func statusForCode(code string) int {
	switch code {
	case usecase.CodeValidation, usecase.CodeBadFormat:
		return http.StatusBadRequest
	case usecase.CodeUnauthorized:
		return http.StatusUnauthorized
	case usecase.CodeForbidden:
		return http.StatusForbidden
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeConflict:
		return http.StatusConflict
	case usecase.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeUseCaseError maps a use case failure to its HTTP response. Technical
// detail is logged and never written to the client.
func writeUseCaseError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case usecase.CodeConflict:
			middleware.RecordConflict()
		case usecase.CodeRateLimited:
			middleware.RecordRateLimited()
		}

		resp := ErrorResponse{Error: de.Code, Message: de.Message, CurrentUpdatedAt: de.CurrentUpdatedAt}
		for _, f := range de.Fields {
			resp.Details = append(resp.Details, ErrorDetail{Field: f.Field, Message: f.Message})
		}
		writeJSON(w, statusForCode(de.Code), resp)
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		logger.Error("Request failed", zap.String("code", te.Code), zap.Error(err))
		writeErrorResponse(w, http.StatusInternalServerError, te.Code, te.Message)
		return
	}

	logger.Error("Unexpected error", zap.Error(err))
	writeErrorResponse(w, http.StatusInternalServerError, usecase.CodeStorage, "internal error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "invalid JSON body")
		return false
	}
	return true
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
