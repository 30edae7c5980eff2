package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notelab/notebook-backend/internal/pkg/ctxutil"
	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/repos"
)

// requireNotebookOwner resolves the caller from request context and
// checks the ownership predicate. Every notebook-scoped operation runs
// through here before touching rows.
func requireNotebookOwner(ctx context.Context, tx *gorm.DB, notebooks repos.NotebookRepo, notebookID uuid.UUID) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, pkgerrors.ErrUnauthorized
	}
	owns, err := notebooks.IsOwner(ctx, tx, rd.UserID, notebookID)
	if err != nil {
		return uuid.Nil, err
	}
	if !owns {
		// Cross-user probes get the same answer as a missing notebook.
		return uuid.Nil, pkgerrors.ErrNotFound
	}
	return rd.UserID, nil
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, pkgerrors.ErrUnauthorized
	}
	return rd.UserID, nil
}
