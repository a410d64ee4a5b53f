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

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	UpdateName(ctx context.Context, id uint, name string) (domain.User, error)
	Admins(ctx context.Context) ([]domain.User, error)
}

type ParticipationLister interface {
	UserParticipations(ctx context.Context, userID uint) ([]domain.Participant, error)
}

type AdminContact interface {
	ContactAdmin(ctx context.Context, user domain.User, subject, message string) error
}

type UserHandler struct {
	svc            UserService
	participations ParticipationLister
	contact        AdminContact
}

func NewUserHandler(svc UserService, participations ParticipationLister, contact AdminContact) *UserHandler {
	return &UserHandler{
		svc:            svc,
		participations: participations,
		contact:        contact,
	}
}

// HandleUpdateProfile godoc
// @Summary      Update the logged in user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request   body      request.UpdateProfileRequest true "request body"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/me [patch]
// @Security BearerAuth
func (h *UserHandler) HandleUpdateProfile(ctx *gin.Context) {
	session, respErr := sessionFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.UpdateName(ctx.Request.Context(), session.UserID, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "ID", session.UserID))
			return
		}

		err = fmt.Errorf("v1.HandleUpdateProfile -> h.svc.UpdateName -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleGetParticipations godoc
// @Summary      List the logged in user's registrations
// @Tags         users
// @Produce      json
// @Success      200      {array}    domain.Participant
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/me/participations [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetParticipations(ctx *gin.Context) {
	session, respErr := sessionFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participations, err := h.participations.UserParticipations(ctx.Request.Context(), session.UserID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetParticipations -> h.participations.UserParticipations -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, participations)
}

// HandleContactAdmin godoc
// @Summary      Send a message to the administrators
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request   body      request.ContactAdminRequest true "request body"
// @Success      202      {object}   response.MessageResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/me/contact-admin [post]
// @Security BearerAuth
func (h *UserHandler) HandleContactAdmin(ctx *gin.Context) {
	session, respErr := sessionFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ContactAdminRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "ID", session.UserID))
			return
		}

		err = fmt.Errorf("v1.HandleContactAdmin -> h.svc.GetUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	if err = h.contact.ContactAdmin(ctx.Request.Context(), user, req.Subject, req.Message); err != nil {
		switch {
		case errors.Is(err, service.ErrContactUnavailable):
			response.RenderErr(ctx, response.ErrServiceUnavailable(err))
		case errors.Is(err, service.ErrEmptyMessage):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleContactAdmin -> h.contact.ContactAdmin -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusAccepted, response.MessageResponse{Message: "message sent"})
}

// HandleListAdmins godoc
// @Summary      List administrator accounts
// @Tags         admin
// @Produce      json
// @Success      200      {array}    domain.User
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/users [get]
// @Security BearerAuth
func (h *UserHandler) HandleListAdmins(ctx *gin.Context) {
	admins, err := h.svc.Admins(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListAdmins -> h.svc.Admins -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, admins)
}
