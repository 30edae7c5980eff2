package http

import (
	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/http/handlers"
	"github.com/notelab/notebook-backend/internal/http/middleware"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log      *logger.Logger
	Mode     string
	Auth     *middleware.AuthMiddleware
	Health   *handlers.HealthHandler
	AuthH    *handlers.AuthHandler
	Notebook *handlers.NotebookHandler
	Source   *handlers.SourceHandler
	Callback *handlers.CallbackHandler
	Note     *handlers.NoteHandler
	Chat     *handlers.ChatHandler
	Search   *handlers.SearchHandler
	SSE      *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode == "prod" || cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(cfg.Log))

	r.GET("/health", cfg.Health.Check)

	api := r.Group("/api")

	// The engine posts results here with no user token; origins are
	// wide open since the caller is another backend.
	callback := api.Group("/callback", middleware.PermissiveCORS())
	callback.POST("/process-source", cfg.Callback.ProcessSource)

	browser := api.Group("", middleware.NewCORS(cfg.Log))

	auth := browser.Group("/auth")
	{
		auth.POST("/register", cfg.AuthH.Register)
		auth.POST("/login", cfg.AuthH.Login)
		auth.POST("/refresh", cfg.AuthH.Refresh)
		auth.POST("/logout", cfg.Auth.RequireAuth(), cfg.AuthH.Logout)
	}

	authed := browser.Group("", cfg.Auth.RequireAuth())
	{
		authed.POST("/notebooks", cfg.Notebook.Create)
		authed.GET("/notebooks", cfg.Notebook.List)
		authed.GET("/notebooks/:notebookId", cfg.Notebook.Get)
		authed.PATCH("/notebooks/:notebookId", cfg.Notebook.Update)
		authed.DELETE("/notebooks/:notebookId", cfg.Notebook.Delete)
		authed.GET("/notebooks/:notebookId/events", cfg.SSE.Subscribe)

		authed.POST("/notebooks/:notebookId/sources/file", cfg.Source.CreateFile)
		authed.POST("/notebooks/:notebookId/sources/text", cfg.Source.CreateText)
		authed.POST("/notebooks/:notebookId/sources/urls", cfg.Source.CreateURLs)
		authed.GET("/notebooks/:notebookId/sources", cfg.Source.List)
		authed.POST("/notebooks/:notebookId/sources/process-batch", cfg.Source.ProcessBatch)

		authed.GET("/sources/:sourceId", cfg.Source.Get)
		authed.DELETE("/sources/:sourceId", cfg.Source.Delete)
		authed.POST("/sources/:sourceId/uploading", cfg.Source.MarkUploading)
		authed.POST("/sources/:sourceId/process", cfg.Source.Process)
		authed.POST("/sources/:sourceId/reset", cfg.Source.Reset)

		authed.POST("/notebooks/:notebookId/notes", cfg.Note.Create)
		authed.GET("/notebooks/:notebookId/notes", cfg.Note.List)
		authed.PATCH("/notes/:noteId", cfg.Note.Update)
		authed.DELETE("/notes/:noteId", cfg.Note.Delete)

		authed.POST("/notebooks/:notebookId/chat", cfg.Chat.Append)
		authed.GET("/notebooks/:notebookId/chat", cfg.Chat.History)
		authed.DELETE("/notebooks/:notebookId/chat", cfg.Chat.Clear)

		authed.POST("/embeddings", cfg.Search.CreateEmbeddings)
		authed.POST("/search/match", cfg.Search.Match)
	}

	return r
}
