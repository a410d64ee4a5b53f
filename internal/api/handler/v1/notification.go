package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventdesk/eventdesk-api/internal/api/handler/v1/request"
	"github.com/eventdesk/eventdesk-api/internal/api/handler/v1/response"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

type NotificationService interface {
	Broadcast(ctx context.Context, eventID uint, req domain.BroadcastRequest) (domain.NotificationReport, error)
}

type NotificationHandler struct {
	svc NotificationService
}

func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{
		svc: svc,
	}
}

// HandleBroadcast godoc
// @Summary      Email a message to an event's participants
// @Description  Targets selected participant ids, every participant with a status, or everyone. Returns one outcome per recipient.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        eventID   path      int                          true  "Event ID"
// @Param        request   body      request.NotificationRequest  true  "request body"
// @Success      200       {object}  domain.NotificationReport
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      422       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/events/{eventID}/notifications [post]
// @Security BearerAuth
func (h *NotificationHandler) HandleBroadcast(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.NotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	report, err := h.svc.Broadcast(ctx.Request.Context(), eventID, req.ToDomain())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrEmptyMessage):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrEmptyMessage))
		case errors.Is(err, service.ErrInvalidTarget):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidTarget))
		case errors.Is(err, service.ErrNoRecipients):
			response.RenderErr(ctx, response.ErrUnprocessable(service.ErrNoRecipients))
		default:
			err = fmt.Errorf("v1.HandleBroadcast -> h.svc.Broadcast -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, report)
}
