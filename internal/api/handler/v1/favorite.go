package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventdesk/eventdesk-api/internal/api/handler/v1/response"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

type FavoriteService interface {
	Add(ctx context.Context, userID, eventID uint) error
	Remove(ctx context.Context, userID, eventID uint) error
	Toggle(ctx context.Context, userID, eventID uint) (bool, error)
	IsFavorite(ctx context.Context, userID, eventID uint) (bool, error)
	List(ctx context.Context, userID uint) ([]domain.Event, error)
}

type FavoriteHandler struct {
	svc FavoriteService
}

func NewFavoriteHandler(svc FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{
		svc: svc,
	}
}

// HandleListFavorites godoc
// @Summary      List the logged in user's favorite events
// @Tags         favorites
// @Produce      json
// @Success      200       {array}   domain.Event
// @Failure      401       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /users/me/favorites [get]
// @Security BearerAuth
func (h *FavoriteHandler) HandleListFavorites(ctx *gin.Context) {
	session, respErr := sessionFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	events, err := h.svc.List(ctx.Request.Context(), session.UserID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListFavorites -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetFavorite godoc
// @Summary      Check whether an event is a favorite
// @Tags         favorites
// @Produce      json
// @Param        eventID   path      int  true  "Event ID"
// @Success      200       {object}  response.FavoriteResponse
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /users/me/favorites/{eventID} [get]
// @Security BearerAuth
func (h *FavoriteHandler) HandleGetFavorite(ctx *gin.Context) {
	h.handle(ctx, "v1.HandleGetFavorite -> h.svc.IsFavorite", h.svc.IsFavorite)
}

// HandleAddFavorite godoc
// @Summary      Add an event to favorites
// @Tags         favorites
// @Produce      json
// @Param        eventID   path      int  true  "Event ID"
// @Success      200       {object}  response.FavoriteResponse
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /users/me/favorites/{eventID} [post]
// @Security BearerAuth
func (h *FavoriteHandler) HandleAddFavorite(ctx *gin.Context) {
	h.handle(ctx, "v1.HandleAddFavorite -> h.svc.Add", func(ctx context.Context, userID, eventID uint) (bool, error) {
		return true, h.svc.Add(ctx, userID, eventID)
	})
}

// HandleRemoveFavorite godoc
// @Summary      Remove an event from favorites
// @Tags         favorites
// @Produce      json
// @Param        eventID   path      int  true  "Event ID"
// @Success      200       {object}  response.FavoriteResponse
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /users/me/favorites/{eventID} [delete]
// @Security BearerAuth
func (h *FavoriteHandler) HandleRemoveFavorite(ctx *gin.Context) {
	h.handle(ctx, "v1.HandleRemoveFavorite -> h.svc.Remove", func(ctx context.Context, userID, eventID uint) (bool, error) {
		return false, h.svc.Remove(ctx, userID, eventID)
	})
}

// HandleToggleFavorite godoc
// @Summary      Toggle an event's favorite state
// @Tags         favorites
// @Produce      json
// @Param        eventID   path      int  true  "Event ID"
// @Success      200       {object}  response.FavoriteResponse
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /users/me/favorites/{eventID}/toggle [post]
// @Security BearerAuth
func (h *FavoriteHandler) HandleToggleFavorite(ctx *gin.Context) {
	h.handle(ctx, "v1.HandleToggleFavorite -> h.svc.Toggle", h.svc.Toggle)
}

func (h *FavoriteHandler) handle(
	ctx *gin.Context,
	op string,
	action func(ctx context.Context, userID, eventID uint) (bool, error),
) {
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

	isFavorite, err := action(ctx.Request.Context(), session.UserID, eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
			return
		}

		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%v -> %w", op, err)))
		return
	}

	ctx.JSON(http.StatusOK, response.FavoriteResponse{
		EventID:    eventID,
		IsFavorite: isFavorite,
	})
}
