package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/notelab/notebook-backend/internal/http/response"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/services"
)

type NotebookHandler struct {
	log       *logger.Logger
	notebooks services.NotebookService
}

func NewNotebookHandler(notebooks services.NotebookService, baseLog *logger.Logger) *NotebookHandler {
	return &NotebookHandler{log: baseLog.With("handler", "Notebook"), notebooks: notebooks}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondBadRequest(c, name+" must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func (h *NotebookHandler) Create(c *gin.Context) {
	var input services.CreateNotebookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	notebook, err := h.notebooks.Create(c.Request.Context(), input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, notebook)
}

func (h *NotebookHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	notebook, err := h.notebooks.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, notebook)
}

func (h *NotebookHandler) List(c *gin.Context) {
	notebooks, err := h.notebooks.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, notebooks)
}

func (h *NotebookHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	var input services.UpdateNotebookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	notebook, err := h.notebooks.Update(c.Request.Context(), id, input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, notebook)
}

func (h *NotebookHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	if err := h.notebooks.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
