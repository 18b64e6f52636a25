package chat

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/api/family"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// SendMessage godoc
// @Summary      Send Chat Message
// @Description  Asks the parenting assistant and stores both turns in the family's history.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        familyID path string true "Family ID"
// @Param        message body types.ChatRequest true "Message"
// @Success      200 {object} types.ChatResponse "Assistant Reply"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      404 {object} types.Response "Family Not Found"
// @Failure      503 {object} types.Response "Assistant Unavailable"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /families/{familyID}/chat [post]
func (h *HandlerImpl) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "SendMessage", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/families/{familyID}/chat"),
	))
	defer span.End()

	id, ok := family.FamilyID(w, r)
	if !ok {
		return
	}
	var req types.ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Send(ctx, id, req)
	switch {
	case err == nil:
		api.WriteJSONResponse(w, r, http.StatusOK, resp)
	case types.IsValidation(err):
		api.ValidationErrorResponse(w, r, err)
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Family not found")
	case errors.Is(err, types.ErrProviderDisabled), errors.Is(err, types.ErrProviderUnavailable):
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Assistant is unavailable, try again later")
	default:
		h.logger.ErrorContext(ctx, "SendMessage failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to process message")
	}
}

// GetHistory godoc
// @Summary      Get Chat History
// @Description  Returns the stored chat messages, oldest first.
// @Tags         Chat
// @Produce      json
// @Param        familyID path string true "Family ID"
// @Success      200 {array} types.ChatMessage "Chat History"
// @Failure      400 {object} types.Response "Invalid Family ID"
// @Router       /families/{familyID}/chat [get]
func (h *HandlerImpl) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := family.FamilyID(w, r)
	if !ok {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.History(r.Context(), id))
}

// ClearHistory godoc
// @Summary      Clear Chat History
// @Description  Deletes the family's chat history.
// @Tags         Chat
// @Param        familyID path string true "Family ID"
// @Success      204 "History Cleared"
// @Failure      400 {object} types.Response "Invalid Family ID"
// @Router       /families/{familyID}/chat [delete]
func (h *HandlerImpl) ClearHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := family.FamilyID(w, r)
	if !ok {
		return
	}
	h.service.Clear(r.Context(), id)
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
