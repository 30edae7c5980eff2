package app

import (
	"github.com/notelab/notebook-backend/internal/http/handlers"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/realtime"
)

type appHandlers struct {
	health   *handlers.HealthHandler
	auth     *handlers.AuthHandler
	notebook *handlers.NotebookHandler
	source   *handlers.SourceHandler
	callback *handlers.CallbackHandler
	note     *handlers.NoteHandler
	chat     *handlers.ChatHandler
	search   *handlers.SearchHandler
	sse      *handlers.SSEHandler
}

func wireHandlers(s *appServices, hub *realtime.SSEHub, log *logger.Logger) *appHandlers {
	return &appHandlers{
		health:   handlers.NewHealthHandler(),
		auth:     handlers.NewAuthHandler(s.auth, log),
		notebook: handlers.NewNotebookHandler(s.notebook, log),
		source:   handlers.NewSourceHandler(s.source, s.dispatch, log),
		callback: handlers.NewCallbackHandler(s.callback, log),
		note:     handlers.NewNoteHandler(s.note, log),
		chat:     handlers.NewChatHandler(s.chat, log),
		search:   handlers.NewSearchHandler(s.search, log),
		sse:      handlers.NewSSEHandler(hub, s.notebook, log),
	}
}
