package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/workdesk/internal/application"
	"github.com/example/workdesk/internal/syncbridge"
)

type syncService interface {
	Export(ctx context.Context, passphrase string) ([]byte, error)
	Import(ctx context.Context, blob []byte, passphrase string) (syncbridge.ImportStats, error)
}

type SyncHandler struct {
	service   syncService
	responder responder
	logger    *slog.Logger
}

func NewSyncHandler(service syncService, logger *slog.Logger) *SyncHandler {
	base := defaultLogger(logger)
	return &SyncHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SyncHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SyncHandler", operation, attrs...)
}

// Export seals the portable collections into a blob. Administrator only.
func (h *SyncHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || !principal.IsAdmin {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	var req syncExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Export", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode export request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if strings.TrimSpace(req.Passphrase) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPassphrase)
		return
	}

	logger := h.log(r.Context(), "Export", "principal_id", principal.UserID)

	blob, err := h.service.Export(r.Context(), req.Passphrase)
	if err != nil {
		logger.ErrorContext(r.Context(), "sync export failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("blob_bytes", len(blob)).InfoContext(r.Context(), "sync exported")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, syncExportResponse{
		Blob: base64.StdEncoding.EncodeToString(blob),
	})
}

// Import merges a previously exported blob. Administrator only.
func (h *SyncHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || !principal.IsAdmin {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	var req syncImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Import", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode import request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if strings.TrimSpace(req.Passphrase) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPassphrase)
		return
	}

	blob, err := base64.StdEncoding.DecodeString(req.Blob)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSyncBlob)
		return
	}

	logger := h.log(r.Context(), "Import", "principal_id", principal.UserID, "blob_bytes", len(blob))

	stats, err := h.service.Import(r.Context(), blob, req.Passphrase)
	if err != nil {
		if errors.Is(err, syncbridge.ErrBadPassphrase) {
			logger.ErrorContext(r.Context(), "sync import rejected", "error", err)
			h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{
				ErrorCode: "SYNC_BAD_PASSPHRASE",
				Message:   "암호가 올바르지 않거나 손상된 데이터입니다.",
			})
			return
		}
		logger.ErrorContext(r.Context(), "sync import failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With(
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
	).InfoContext(r.Context(), "sync imported")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, syncImportResponse{
		Created: stats.Created,
		Updated: stats.Updated,
		Skipped: stats.Skipped,
	})
}

var (
	errMissingPassphrase = errors.New("동기화 암호를 입력해 주세요.")
	errInvalidSyncBlob   = errors.New("동기화 데이터 형식이 올바르지 않습니다.")
)

type syncExportRequest struct {
	Passphrase string `json:"passphrase"`
}

type syncExportResponse struct {
	Blob string `json:"blob"`
}

type syncImportRequest struct {
	Passphrase string `json:"passphrase"`
	Blob       string `json:"blob"`
}

type syncImportResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}
