package v1

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eventdesk/eventdesk-api/internal/api/handler/v1/response"
	"github.com/eventdesk/eventdesk-api/internal/api/middleware"
	"github.com/eventdesk/eventdesk-api/internal/domain"
)

var errNoSession = errors.New("no authenticated session")

// sessionFrom is the only way handlers learn who is calling.
func sessionFrom(ctx *gin.Context) (domain.Session, *response.Err) {
	session, ok := middleware.SessionFrom(ctx)
	if !ok {
		return domain.Session{}, response.ErrUnauthorized(errNoSession)
	}

	return session, nil
}

func pathID(ctx *gin.Context, name string) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %v %q", name, ctx.Param(name)))
	}

	return uint(id), nil
}
