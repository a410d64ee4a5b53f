package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/eventdesk/eventdesk-api/internal/api/handler/v1/request"
	"github.com/eventdesk/eventdesk-api/internal/api/handler/v1/response"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

const maxBannerSize = 5 << 20

var errBannerTooLarge = fmt.Errorf("banner must not exceed %d bytes", maxBannerSize)

type EventService interface {
	List(ctx context.Context, filter domain.EventFilter) (domain.EventPage, error)
	Get(ctx context.Context, id uint) (domain.Event, error)
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	Update(ctx context.Context, event domain.Event) (domain.Event, error)
	Delete(ctx context.Context, id uint) error
	UploadBanner(ctx context.Context, eventID uint, upload service.BannerUpload) (domain.Event, error)
	Categories() []string
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleListEvents godoc
// @Summary      List events
// @Description  Filters by category, free text and date range, sorted and paginated.
// @Tags         events
// @Produce      json
// @Param        category  query     string  false  "Category"
// @Param        search    query     string  false  "Matches title or location"
// @Param        date      query     string  false  "all, today, this_week or this_month"
// @Param        sort      query     string  false  "date, date_asc, popularity or name"
// @Param        page      query     int     false  "Page, starting at 1"
// @Param        limit     query     int     false  "Page size"
// @Success      200       {object}  domain.EventPage
// @Failure      400       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /events [get]
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	var q request.ListEventsQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := q.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	page, err := h.svc.List(ctx.Request.Context(), q.ToFilter())
	if err != nil {
		err = fmt.Errorf("v1.HandleListEvents -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        eventID   path      int  true  "Event ID"
// @Success      200       {object}  domain.Event
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /events/{eventID} [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	event, err := h.svc.Get(ctx.Request.Context(), eventID)
	if err != nil {
		h.renderErr(ctx, "v1.HandleGetEvent -> h.svc.Get", eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleGetCategories godoc
// @Summary      List event categories
// @Tags         events
// @Produce      json
// @Success      200       {object}  response.CategoriesResponse
// @Router       /events/categories [get]
func (h *EventHandler) HandleGetCategories(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.CategoriesResponse{Categories: h.svc.Categories()})
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request   body      request.EventRequest  true  "Event details"
// @Success      201       {object}  domain.Event
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	session, respErr := sessionFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event := req.ToDomain(0)
	event.OrganizerID = session.UserID

	created, err := h.svc.Create(ctx.Request.Context(), event)
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateEvent -> h.svc.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleUpdateEvent godoc
// @Summary      Update an event
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        eventID   path      int                   true  "Event ID"
// @Param        request   body      request.EventRequest  true  "Event details"
// @Success      200       {object}  domain.Event
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      422       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/events/{eventID} [put]
// @Security BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.Update(ctx.Request.Context(), req.ToDomain(eventID))
	if err != nil {
		h.renderErr(ctx, "v1.HandleUpdateEvent -> h.svc.Update", eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event with its registrations and favorites
// @Tags         admin
// @Param        eventID   path      int  true  "Event ID"
// @Success      204
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/events/{eventID} [delete]
// @Security BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), eventID); err != nil {
		h.renderErr(ctx, "v1.HandleDeleteEvent -> h.svc.Delete", eventID, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleUploadBanner godoc
// @Summary      Upload an event banner
// @Description  The file content must be an image; its type is sniffed, not taken from the client.
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        eventID   path      int   true  "Event ID"
// @Param        banner    formData  file  true  "Banner image"
// @Success      200       {object}  domain.Event
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      503       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/events/{eventID}/banner [post]
// @Security BearerAuth
func (h *EventHandler) HandleUploadBanner(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	header, err := ctx.FormFile("banner")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if header.Size > maxBannerSize {
		response.RenderErr(ctx, response.ErrBadRequest(errBannerTooLarge))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		err = fmt.Errorf("v1.HandleUploadBanner -> file.Seek -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	event, err := h.svc.UploadBanner(ctx.Request.Context(), eventID, service.BannerUpload{
		ContentType: mtype.String(),
		Body:        file,
		Size:        header.Size,
	})
	if err != nil {
		h.renderErr(ctx, "v1.HandleUploadBanner -> h.svc.UploadBanner", eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

func (h *EventHandler) renderErr(ctx *gin.Context, op string, eventID uint, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
	case errors.Is(err, service.ErrCapacityBelowApproved):
		response.RenderErr(ctx, response.ErrUnprocessable(service.ErrCapacityBelowApproved))
	case errors.Is(err, service.ErrInvalidBanner):
		response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidBanner))
	case errors.Is(err, service.ErrStorageDisabled):
		response.RenderErr(ctx, response.ErrServiceUnavailable(service.ErrStorageDisabled))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%v -> %w", op, err)))
	}
}
