package app

import (
	"gorm.io/gorm"

	"github.com/notelab/notebook-backend/internal/clients/engine"
	"github.com/notelab/notebook-backend/internal/clients/gcp"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/services"
)

type appServices struct {
	events   services.EventPublisher
	auth     services.AuthService
	notebook services.NotebookService
	source   services.SourceService
	dispatch services.DispatchService
	callback services.CallbackService
	search   services.SearchService
	note     services.NoteService
	chat     services.ChatService
	sweeper  *services.StaleSourceSweeper
}

func wireServices(db *gorm.DB, r *appRepos, engineClient engine.Client, bucket gcp.BucketService, events services.EventPublisher, log *logger.Logger) *appServices {
	return &appServices{
		events:   events,
		auth:     services.NewAuthService(db, r.users, r.userTokens, log),
		notebook: services.NewNotebookService(db, r.notebooks, r.sources, r.notes, r.embeddings, r.chat, bucket, events, log),
		source:   services.NewSourceService(db, r.notebooks, r.sources, bucket, events, log),
		dispatch: services.NewDispatchService(db, r.notebooks, r.sources, engineClient, bucket, events, log),
		callback: services.NewCallbackService(db, r.sources, events, log),
		search:   services.NewSearchService(db, r.notebooks, r.embeddings, log),
		note:     services.NewNoteService(db, r.notebooks, r.notes, log),
		chat:     services.NewChatService(db, r.notebooks, r.chat, log),
		sweeper:  services.NewStaleSourceSweeper(db, r.sources, log),
	}
}
