package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/types"
)

type CreateNoteInput struct {
	Title   string           `json:"title" binding:"required"`
	Content string           `json:"content"`
	Author  types.NoteAuthor `json:"author"`
}

type UpdateNoteInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type NoteService interface {
	Create(ctx context.Context, notebookID uuid.UUID, input CreateNoteInput) (*types.Note, error)
	List(ctx context.Context, notebookID uuid.UUID) ([]*types.Note, error)
	Update(ctx context.Context, noteID uuid.UUID, input UpdateNoteInput) (*types.Note, error)
	Delete(ctx context.Context, noteID uuid.UUID) error
}

type noteService struct {
	db        *gorm.DB
	log       *logger.Logger
	notebooks repos.NotebookRepo
	notes     repos.NoteRepo
}

func NewNoteService(db *gorm.DB, notebooks repos.NotebookRepo, notes repos.NoteRepo, baseLog *logger.Logger) NoteService {
	return &noteService{
		db:        db,
		log:       baseLog.With("service", "NoteService"),
		notebooks: notebooks,
		notes:     notes,
	}
}

func (s *noteService) getOwnedNote(ctx context.Context, noteID uuid.UUID) (*types.Note, error) {
	note, err := s.notes.GetByID(ctx, nil, noteID)
	if err != nil {
		return nil, err
	}
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, note.NotebookID); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *noteService) Create(ctx context.Context, notebookID uuid.UUID, input CreateNoteInput) (*types.Note, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", pkgerrors.ErrInvalidArgument)
	}
	author := input.Author
	if author == "" {
		author = types.NoteAuthorUser
	}
	if !author.Valid() {
		return nil, fmt.Errorf("%w: unknown note author %q", pkgerrors.ErrInvalidArgument, author)
	}
	created, err := s.notes.Create(ctx, nil, []*types.Note{{
		NotebookID: notebookID,
		Title:      title,
		Content:    input.Content,
		Author:     author,
	}})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *noteService) List(ctx context.Context, notebookID uuid.UUID) ([]*types.Note, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	return s.notes.GetByNotebookID(ctx, nil, notebookID)
}

func (s *noteService) Update(ctx context.Context, noteID uuid.UUID, input UpdateNoteInput) (*types.Note, error) {
	if _, err := s.getOwnedNote(ctx, noteID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", pkgerrors.ErrInvalidArgument)
		}
		fields["title"] = title
	}
	if input.Content != nil {
		fields["content"] = *input.Content
	}
	if len(fields) > 0 {
		if err := s.notes.UpdateFields(ctx, nil, noteID, fields); err != nil {
			return nil, err
		}
	}
	return s.notes.GetByID(ctx, nil, noteID)
}

func (s *noteService) Delete(ctx context.Context, noteID uuid.UUID) error {
	if _, err := s.getOwnedNote(ctx, noteID); err != nil {
		return err
	}
	return s.notes.DeleteByID(ctx, nil, noteID)
}
