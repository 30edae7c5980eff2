package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/http/response"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/services"
)

// CallbackHandler receives processing results from the workflow engine.
// The route is unauthenticated; the engine cannot hold user tokens.
type CallbackHandler struct {
	log      *logger.Logger
	callback services.CallbackService
}

func NewCallbackHandler(callback services.CallbackService, baseLog *logger.Logger) *CallbackHandler {
	return &CallbackHandler{log: baseLog.With("handler", "Callback"), callback: callback}
}

func (h *CallbackHandler) ProcessSource(c *gin.Context) {
	var result services.CallbackResult
	if err := c.ShouldBindJSON(&result); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	source, err := h.callback.ApplyResult(c.Request.Context(), result)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, gin.H{
		"success": true,
		"message": "source updated",
		"data":    source,
	})
}
