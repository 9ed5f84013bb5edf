package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
	"github.com/kidsinhalf/mayocat-shop/pkg/httputil"
)

// AttachmentHandler serves attachment metadata and files.
type AttachmentHandler struct {
	attachments AttachmentService
	logger      *slog.Logger
}

// NewAttachmentHandler creates a new attachment HTTP handler.
func NewAttachmentHandler(attachments AttachmentService, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachments: attachments,
		logger:      logger,
	}
}

// GetAttachment handles GET /attachment/{name}. "{slug}.{extension}"
// streams the file; a bare slug returns the attachment representation.
func (h *AttachmentHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	slug, ext, wantFile := strings.Cut(name, ".")

	attachment, err := h.attachments.FindAttachment(r.Context(), slug)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if !wantFile {
		httputil.WriteJSON(w, http.StatusOK, NewAttachmentRepresentation(attachment))
		return
	}
	if !strings.EqualFold(ext, attachment.Extension) {
		httputil.WriteError(w, r, apperrors.NotFound("attachment file", name), h.logger)
		return
	}

	obj, err := h.attachments.OpenAttachmentFile(r.Context(), attachment)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.WarnContext(r.Context(), "attachment download interrupted",
			slog.String("attachment", attachment.Slug),
			slog.String("error", err.Error()),
		)
	}
}
