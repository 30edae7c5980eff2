package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/http/response"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/services"
)

type NoteHandler struct {
	log   *logger.Logger
	notes services.NoteService
}

func NewNoteHandler(notes services.NoteService, baseLog *logger.Logger) *NoteHandler {
	return &NoteHandler{log: baseLog.With("handler", "Note"), notes: notes}
}

func (h *NoteHandler) Create(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	var input services.CreateNoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	note, err := h.notes.Create(c.Request.Context(), notebookID, input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, note)
}

func (h *NoteHandler) List(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	notes, err := h.notes.List(c.Request.Context(), notebookID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, notes)
}

func (h *NoteHandler) Update(c *gin.Context) {
	noteID, ok := pathUUID(c, "noteId")
	if !ok {
		return
	}
	var input services.UpdateNoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	note, err := h.notes.Update(c.Request.Context(), noteID, input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, note)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	noteID, ok := pathUUID(c, "noteId")
	if !ok {
		return
	}
	if err := h.notes.Delete(c.Request.Context(), noteID); err != nil {
		response.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
