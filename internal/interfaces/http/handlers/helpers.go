// Package handlers exposes the application services over HTTP.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openbaseline/compliance/pkg/constants"
	"github.com/openbaseline/compliance/pkg/errors"
)

// errorBody is the uniform error envelope returned on failures.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondError maps an application error onto its HTTP status. Unknown errors
// collapse into a generic 500 so internals never leak to the caller.
func respondError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus, errorBody{
			Error:   string(appErr.Code),
			Message: appErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, errorBody{
		Error:   string(constants.ErrCodeInternal),
		Message: "internal error",
	})
}

// pathUUID parses a uuid path parameter, responding with 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Error:   string(constants.ErrCodeInvalidRequest),
			Message: name + " must be a valid uuid",
		})
		return uuid.Nil, false
	}
	return id, true
}
