package handlers

import (
	"net/http"

	"olza-admin/internal/logger"
	"olza-admin/internal/models"

	"github.com/gin-gonic/gin"
)

const msgInternal = "Internal server error."

// envelope is the shape every admin API response shares.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func respond(c *gin.Context, status int, success bool, data interface{}) {
	c.JSON(status, envelope{Success: success, Data: data})
}

func respondOK(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, true, data)
}

func respondMessage(c *gin.Context, status int, message string) {
	respond(c, status, false, gin.H{"message": message})
}

// respondError maps err to its status and user-facing message. Errors that
// are not an *models.AppError are logged and hidden behind a generic message.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	if appErr, ok := models.AsAppError(err); ok {
		respondMessage(c, appErr.StatusCode, appErr.Message)
		return
	}
	log.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	respondMessage(c, http.StatusInternalServerError, msgInternal)
}
