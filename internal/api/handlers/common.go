package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arielwu/deskpulse/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func requireUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

// requireOwnUser checks that the authenticated user matches the :user_id
// path parameter. Users only ever see their own state and history.
func requireOwnUser(c *gin.Context) (string, bool) {
	authed, ok := requireUserID(c)
	if !ok {
		return "", false
	}
	target := c.Param("user_id")
	if target == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "Auth", "user_id is required", nil))
		return "", false
	}
	if target != authed {
		writeError(c, utils.E(utils.CodeForbidden, "Auth", "cannot access another user's data", nil))
		return "", false
	}
	return target, true
}
