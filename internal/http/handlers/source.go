package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/http/response"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/services"
	"github.com/notelab/notebook-backend/internal/types"
)

type SourceHandler struct {
	log      *logger.Logger
	sources  services.SourceService
	dispatch services.DispatchService
}

func NewSourceHandler(sources services.SourceService, dispatch services.DispatchService, baseLog *logger.Logger) *SourceHandler {
	return &SourceHandler{
		log:      baseLog.With("handler", "Source"),
		sources:  sources,
		dispatch: dispatch,
	}
}

func (h *SourceHandler) CreateFile(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	var input services.CreateFileSourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	source, err := h.sources.CreateFileSource(c.Request.Context(), notebookID, input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, source)
}

func (h *SourceHandler) CreateText(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	var input services.CreateTextSourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	source, err := h.sources.CreateTextSource(c.Request.Context(), notebookID, input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, source)
}

func (h *SourceHandler) CreateURLs(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	var input struct {
		Type types.SourceType `json:"type" binding:"required"`
		URLs []string         `json:"urls" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	sources, err := h.sources.CreateURLSources(c.Request.Context(), notebookID, input.Type, input.URLs)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, sources)
}

func (h *SourceHandler) List(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	sources, err := h.sources.List(c.Request.Context(), notebookID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, sources)
}

func (h *SourceHandler) Get(c *gin.Context) {
	sourceID, ok := pathUUID(c, "sourceId")
	if !ok {
		return
	}
	source, err := h.sources.Get(c.Request.Context(), sourceID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, source)
}

func (h *SourceHandler) Delete(c *gin.Context) {
	sourceID, ok := pathUUID(c, "sourceId")
	if !ok {
		return
	}
	if err := h.sources.Delete(c.Request.Context(), sourceID); err != nil {
		response.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SourceHandler) MarkUploading(c *gin.Context) {
	sourceID, ok := pathUUID(c, "sourceId")
	if !ok {
		return
	}
	source, err := h.sources.MarkUploading(c.Request.Context(), sourceID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, source)
}

func (h *SourceHandler) Reset(c *gin.Context) {
	sourceID, ok := pathUUID(c, "sourceId")
	if !ok {
		return
	}
	source, err := h.sources.Reset(c.Request.Context(), sourceID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, source)
}

// Process forwards a single file-backed source to the workflow engine.
func (h *SourceHandler) Process(c *gin.Context) {
	sourceID, ok := pathUUID(c, "sourceId")
	if !ok {
		return
	}
	source, err := h.dispatch.SubmitDocument(c.Request.Context(), sourceID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusAccepted, source)
}

// ProcessBatch forwards a batch of URL or text sources in one engine
// submission.
func (h *SourceHandler) ProcessBatch(c *gin.Context) {
	notebookID, ok := pathUUID(c, "notebookId")
	if !ok {
		return
	}
	var input services.BatchSubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	sources, err := h.dispatch.SubmitBatch(c.Request.Context(), notebookID, input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusAccepted, sources)
}
