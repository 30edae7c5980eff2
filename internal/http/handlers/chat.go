package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/http/response"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/services"
)

type ChatHandler struct {
	log  *logger.Logger
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService, baseLog *logger.Logger) *ChatHandler {
	return &ChatHandler{log: baseLog.With("handler", "Chat"), chat: chat}
}

func (h *ChatHandler) Append(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	var input services.AppendChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	msg, err := h.chat.Append(c.Request.Context(), notebookID, input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, msg)
}

func (h *ChatHandler) History(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	msgs, err := h.chat.History(c.Request.Context(), notebookID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, msgs)
}

func (h *ChatHandler) Clear(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	if err := h.chat.Clear(c.Request.Context(), notebookID); err != nil {
		response.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
