package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/fluxkit/errors"
)

// DataResponse is the success envelope of the JSON endpoints.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError writes err as an ErrorResponse. AppErrors keep their
// status; anything else becomes a 500 INTERNAL_ERROR.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, appErr.ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}
