package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/http/response"
	"github.com/notelab/notebook-backend/internal/pkg/ctxutil"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/services"
)

type AuthHandler struct {
	log  *logger.Logger
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService, baseLog *logger.Logger) *AuthHandler {
	return &AuthHandler{log: baseLog.With("handler", "Auth"), auth: auth}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	result, err := h.auth.Register(c.Request.Context(), input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, result)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondBadRequest(c, err.Error())
		return
	}
	ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
		RefreshToken: strings.TrimSpace(input.RefreshToken),
	})
	result, err := h.auth.Refresh(ctx)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, result)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		response.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
