package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/http/response"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/realtime"
	"github.com/notelab/notebook-backend/internal/services"
)

// SSEHandler streams live source updates for a notebook. Ownership is
// checked once at subscribe time; the stream then follows the
// notebook's channel until the client goes away.
type SSEHandler struct {
	log       *logger.Logger
	hub       *realtime.SSEHub
	notebooks services.NotebookService
}

func NewSSEHandler(hub *realtime.SSEHub, notebooks services.NotebookService, baseLog *logger.Logger) *SSEHandler {
	return &SSEHandler{log: baseLog.With("handler", "SSE"), hub: hub, notebooks: notebooks}
}

func (h *SSEHandler) Subscribe(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	notebook, err := h.notebooks.Get(c.Request.Context(), notebookID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	client := h.hub.NewSSEClient(notebook.UserID)
	h.hub.AddChannel(client, realtime.NotebookChannel(notebookID))
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
