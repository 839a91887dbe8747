package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/infra/http/middleware"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

const (
	MaxImportBytes = 5 << 20
	importField    = "file"
	exportFilename = "buyers-export.csv"
)

type CSVHandler struct {
	ImportUC *usecase.ImportCsvUseCase
	ExportUC *usecase.ExportCsvUseCase
	Logger   *zap.Logger
}

func NewCSVHandler(imp *usecase.ImportCsvUseCase, exp *usecase.ExportCsvUseCase, logger *zap.Logger) *CSVHandler {
	return &CSVHandler{ImportUC: imp, ExportUC: exp, Logger: loggerOrNop(logger)}
}

type importResponse struct {
	OK bool `json:"ok"`
	*usecase.ImportCsvOutput
}

// Import (POST /api/buyers/import) expects multipart/form-data with the CSV
// in field "file".
func (h *CSVHandler) Import(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeBadFormat, "expected multipart/form-data with CSV file (field 'file')")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes+1<<20)
	file, header, err := r.FormFile(importField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusBadRequest, usecase.CodeBadFormat, "CSV file too large (max 5 MiB)")
			return
		}
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeBadFormat, "missing file field 'file'")
		return
	}
	defer file.Close()

	if header.Size > MaxImportBytes {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeBadFormat, "CSV file too large (max 5 MiB)")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxImportBytes+1))
	if err != nil {
		h.Logger.Error("Failed reading upload", zap.Error(err))
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeBadFormat, "failed to read upload")
		return
	}
	if len(data) > MaxImportBytes {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeBadFormat, "CSV file too large (max 5 MiB)")
		return
	}
	if bytes.IndexByte(data, 0) >= 0 {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeBadFormat, "upload is not a text CSV file")
		return
	}

	out, err := h.ImportUC.Execute(r.Context(), identity, string(data))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	middleware.RecordCSVRows("inserted", out.InsertedCount)
	middleware.RecordCSVRows("rejected", len(out.RowErrors))
	writeJSON(w, http.StatusOK, importResponse{OK: true, ImportCsvOutput: out})
}

// Export (GET /api/buyers/export) streams every buyer matching the list filters.
func (h *CSVHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r.URL.Query())
	if !ok {
		return
	}

	// Nothing reaches the client until the export has succeeded.
	var buf bytes.Buffer
	if err := h.ExportUC.Execute(r.Context(), filter, &buf); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
