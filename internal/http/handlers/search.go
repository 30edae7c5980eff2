package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/http/response"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/services"
)

type SearchHandler struct {
	log    *logger.Logger
	search services.SearchService
}

func NewSearchHandler(search services.SearchService, baseLog *logger.Logger) *SearchHandler {
	return &SearchHandler{log: baseLog.With("handler", "Search"), search: search}
}

func (h *SearchHandler) CreateEmbeddings(c *gin.Context) {
	var input struct {
		Embeddings []services.CreateEmbeddingInput `json:"embeddings" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	created, err := h.search.CreateEmbeddings(c.Request.Context(), input.Embeddings)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, gin.H{"count": len(created)})
}

func (h *SearchHandler) Match(c *gin.Context) {
	var input services.MatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	matches, err := h.search.Match(c.Request.Context(), input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, matches)
}
