package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/workdesk/internal/application"
)

type mailSender interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

type MailHandler struct {
	sender    mailSender
	responder responder
	logger    *slog.Logger
}

func NewMailHandler(sender mailSender, logger *slog.Logger) *MailHandler {
	base := defaultLogger(logger)
	return &MailHandler{sender: sender, responder: newResponder(base), logger: base}
}

func (h *MailHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MailHandler", operation, attrs...)
}

// Send relays one outbound message through the configured mail API.
// Administrator only.
func (h *MailHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sender == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || !principal.IsAdmin {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	var req sendMailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Send", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode mail request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	recipients := make([]string, 0, len(req.To))
	for _, to := range req.To {
		if trimmed := strings.TrimSpace(to); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	if len(recipients) == 0 || strings.TrimSpace(req.Subject) == "" {
		vErr := &application.ValidationError{FieldErrors: map[string]string{}}
		if len(recipients) == 0 {
			vErr.FieldErrors["to"] = "받는 사람을 한 명 이상 지정해 주세요"
		}
		if strings.TrimSpace(req.Subject) == "" {
			vErr.FieldErrors["subject"] = "메일 제목을 입력해 주세요"
		}
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	logger := h.log(r.Context(), "Send", "principal_id", principal.UserID, "recipients", len(recipients))

	if err := h.sender.Send(r.Context(), recipients, req.Subject, req.HTML); err != nil {
		logger.ErrorContext(r.Context(), "mail delivery failed", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusBadGateway, errorResponse{Message: "메일 전송에 실패했습니다."})
		return
	}

	logger.InfoContext(r.Context(), "mail sent")
	h.responder.writeJSON(r.Context(), w, http.StatusAccepted, nil)
}

type sendMailRequest struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}
