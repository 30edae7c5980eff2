package app

import (
	"gorm.io/gorm"

	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/repos"
)

type appRepos struct {
	users      repos.UserRepo
	userTokens repos.UserTokenRepo
	notebooks  repos.NotebookRepo
	sources    repos.SourceRepo
	notes      repos.NoteRepo
	embeddings repos.EmbeddingRepo
	chat       repos.ChatMessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) *appRepos {
	return &appRepos{
		users:      repos.NewUserRepo(db, log),
		userTokens: repos.NewUserTokenRepo(db, log),
		notebooks:  repos.NewNotebookRepo(db, log),
		sources:    repos.NewSourceRepo(db, log),
		notes:      repos.NewNoteRepo(db, log),
		embeddings: repos.NewEmbeddingRepo(db, log),
		chat:       repos.NewChatMessageRepo(db, log),
	}
}
