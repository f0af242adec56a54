package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"labcatalog/internal/domain"
	"labcatalog/internal/service"

	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

// TransferHandler spreadsheet import/export
type TransferHandler struct {
	transfer *service.TransferService
	ErrorWriter
}

func NewTransferHandler(transfer *service.TransferService, errs ErrorWriter) *TransferHandler {
	return &TransferHandler{transfer: transfer, ErrorWriter: errs}
}

type exportRequest struct {
	Type string `json:"type"`
}

// Import multipart form: file, type (compounds|methods|panels), mode (merge|replace).
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, domain.Validationf("failed to parse form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, domain.Validationf("file is required: %v", err))
		return
	}
	defer file.Close()

	report, err := h.transfer.Import(r.Context(), r.FormValue("type"), file, r.FormValue("mode"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Logger.Info("spreadsheet imported",
		zap.String("filename", header.Filename),
		zap.String("type", report.Kind),
		zap.Int("written", report.Written),
	)
	writeJSON(w, http.StatusOK, Ok(report))
}

// Export streams an xlsx attachment.
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	data, filename, err := h.transfer.Export(r.Context(), req.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", service.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Warn("export write failed", zap.Error(err))
	}
}
