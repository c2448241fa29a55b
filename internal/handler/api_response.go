package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

// Bodies for the vision-system routes under /api. They predate the admin
// envelope and are discriminated by a "status" key instead.

const (
	apiStatusOK    = "ok"
	apiStatusError = "error"
)

// apiFailure renders err in the vision contract: 422 with field errors,
// 404 with a bare error message, anything else as a 500.
func apiFailure(c *gin.Context, err error, message string) {
	appErr := appErrors.FromError(err)
	switch appErr.Status {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		errs := appErr.Fields
		if errs == nil {
			errs = map[string][]string{}
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":  apiStatusError,
			"message": "Validation failed",
			"errors":  errs,
		})
	case http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"status": apiStatusError, "error": appErr.Message})
	default:
		detail := appErr.Message
		if appErr.Err != nil {
			detail = appErr.Err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  apiStatusError,
			"message": message,
			"error":   detail,
		})
	}
}
