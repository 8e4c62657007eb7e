package rest

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/crm-bridge/internal/api/shared/errors"
	"github.com/feral-file/crm-bridge/internal/logger"
)

// respondError writes err as the error envelope with its status
func respondError(c *gin.Context, err error, message string) {
	apiErr := apierrors.FromError(err, message)
	if apiErr.Status >= 500 {
		logger.ErrorCtx(c.Request.Context(), err,
			zap.String("path", c.Request.URL.Path),
			zap.String("error_code", string(apiErr.Code)))
	}
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondError(c, apierrors.NewBadRequestError(message, details...), message)
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	respondError(c, apierrors.NewValidationError(message), message)
}
