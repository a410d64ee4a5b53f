package v1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventdesk/eventdesk-api/internal/api/handler/v1/response"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

type ParticipantService interface {
	ListParticipants(ctx context.Context, eventID uint, search string) (domain.ParticipantList, error)
	Approve(ctx context.Context, eventID, participantID uint) (domain.WorkflowReport, error)
	Reject(ctx context.Context, eventID, participantID uint) (domain.WorkflowReport, error)
	Register(ctx context.Context, eventID uint, user domain.User) (domain.Participant, error)
	Withdraw(ctx context.Context, eventID, userID uint) (domain.WorkflowReport, error)
}

type ExportService interface {
	ExportParticipants(ctx context.Context, eventID uint, w io.Writer) (domain.Event, error)
}

type ParticipantHandler struct {
	svc    ParticipantService
	export ExportService
	users  UserService
}

func NewParticipantHandler(svc ParticipantService, export ExportService, users UserService) *ParticipantHandler {
	return &ParticipantHandler{
		svc:    svc,
		export: export,
		users:  users,
	}
}

// HandleListParticipants godoc
// @Summary      List an event's participants by status
// @Description  Pending registrations parked at queue position 0 are approved first while seats remain.
// @Tags         admin
// @Produce      json
// @Param        eventID   path      int     true   "Event ID"
// @Param        search    query     string  false  "Matches name or email"
// @Success      200       {object}  domain.ParticipantList
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/events/{eventID}/participants [get]
// @Security BearerAuth
func (h *ParticipantHandler) HandleListParticipants(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	list, err := h.svc.ListParticipants(ctx.Request.Context(), eventID, ctx.Query("search"))
	if err != nil {
		renderParticipantErr(ctx, "v1.HandleListParticipants -> h.svc.ListParticipants", eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

// HandleApproveParticipant godoc
// @Summary      Approve a pending participant
// @Tags         admin
// @Produce      json
// @Param        eventID        path      int  true  "Event ID"
// @Param        participantID  path      int  true  "Participant ID"
// @Success      200            {object}  domain.WorkflowReport
// @Failure      400            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Failure      409            {object}  response.Err
// @Failure      422            {object}  response.Err
// @Failure      500            {object}  response.Err
// @Router       /admin/events/{eventID}/participants/{participantID}/approve [post]
// @Security BearerAuth
func (h *ParticipantHandler) HandleApproveParticipant(ctx *gin.Context) {
	h.transition(ctx, "v1.HandleApproveParticipant -> h.svc.Approve", h.svc.Approve)
}

// HandleRejectParticipant godoc
// @Summary      Reject a pending participant
// @Description  Refused inside the cutoff before registration closes. Frees nothing but promotes waiting participants if seats are open.
// @Tags         admin
// @Produce      json
// @Param        eventID        path      int  true  "Event ID"
// @Param        participantID  path      int  true  "Participant ID"
// @Success      200            {object}  domain.WorkflowReport
// @Failure      400            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Failure      422            {object}  response.Err
// @Failure      500            {object}  response.Err
// @Router       /admin/events/{eventID}/participants/{participantID}/reject [post]
// @Security BearerAuth
func (h *ParticipantHandler) HandleRejectParticipant(ctx *gin.Context) {
	h.transition(ctx, "v1.HandleRejectParticipant -> h.svc.Reject", h.svc.Reject)
}

func (h *ParticipantHandler) transition(
	ctx *gin.Context,
	op string,
	action func(ctx context.Context, eventID, participantID uint) (domain.WorkflowReport, error),
) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	participantID, respErr := pathID(ctx, "participantID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	report, err := action(ctx.Request.Context(), eventID, participantID)
	if err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("participant", "ID", participantID))
			return
		}

		renderParticipantErr(ctx, op, eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, report)
}

// HandleRegister godoc
// @Summary      Register for an event
// @Description  Auto-approve events approve while seats remain; otherwise the registration joins the waiting list.
// @Tags         events
// @Produce      json
// @Param        eventID   path      int  true  "Event ID"
// @Success      201       {object}  domain.Participant
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Failure      422       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /events/{eventID}/register [post]
// @Security BearerAuth
func (h *ParticipantHandler) HandleRegister(ctx *gin.Context) {
	session, respErr := sessionFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	user, err := h.users.GetUser(ctx.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "ID", session.UserID))
			return
		}

		err = fmt.Errorf("v1.HandleRegister -> h.users.GetUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	participant, err := h.svc.Register(ctx.Request.Context(), eventID, user)
	if err != nil {
		renderParticipantErr(ctx, "v1.HandleRegister -> h.svc.Register", eventID, err)
		return
	}

	ctx.JSON(http.StatusCreated, participant)
}

// HandleWithdraw godoc
// @Summary      Withdraw from an event
// @Tags         events
// @Produce      json
// @Param        eventID   path      int  true  "Event ID"
// @Success      200       {object}  domain.WorkflowReport
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      422       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /events/{eventID}/withdraw [post]
// @Security BearerAuth
func (h *ParticipantHandler) HandleWithdraw(ctx *gin.Context) {
	session, respErr := sessionFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	report, err := h.svc.Withdraw(ctx.Request.Context(), eventID, session.UserID)
	if err != nil {
		renderParticipantErr(ctx, "v1.HandleWithdraw -> h.svc.Withdraw", eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, report)
}

// HandleExportParticipants godoc
// @Summary      Export an event's participants as CSV
// @Tags         admin
// @Produce      text/csv
// @Param        eventID   path      int  true  "Event ID"
// @Success      200       {string}  string  "CSV document"
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/events/{eventID}/participants/export [get]
// @Security BearerAuth
func (h *ParticipantHandler) HandleExportParticipants(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var buf bytes.Buffer
	if _, err := h.export.ExportParticipants(ctx.Request.Context(), eventID, &buf); err != nil {
		renderParticipantErr(ctx, "v1.HandleExportParticipants -> h.export.ExportParticipants", eventID, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="participants-%d.csv"`, eventID))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

var (
	participantConflicts = []error{
		service.ErrAlreadyRegistered,
		service.ErrEventFull,
	}
	participantRuleViolations = []error{
		service.ErrInvalidTransition,
		service.ErrRejectCutoff,
		service.ErrWithdrawCutoff,
		service.ErrRegistrationClosed,
	}
)

func renderParticipantErr(ctx *gin.Context, op string, eventID uint, err error) {
	if errors.Is(err, service.ErrEventNotFound) {
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		return
	}
	if errors.Is(err, service.ErrNotRegistered) {
		response.RenderErr(ctx, response.ErrNotFound("registration", "eventID", eventID))
		return
	}
	for _, target := range participantConflicts {
		if errors.Is(err, target) {
			response.RenderErr(ctx, response.ErrConflict(target))
			return
		}
	}
	for _, target := range participantRuleViolations {
		if errors.Is(err, target) {
			response.RenderErr(ctx, response.ErrUnprocessable(target))
			return
		}
	}

	response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%v -> %w", op, err)))
}
