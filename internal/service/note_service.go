package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"notely-be/internal/apperrors"
	"notely-be/internal/metrics"
	"notely-be/internal/models"
	"notely-be/internal/repository"
)

// untitled replaces a title that was cleared by an update.
const untitled = "Untitled"

// NoteService defines the interface for note business logic. Every call is
// scoped by the caller's user id.
type NoteService interface {
	List(ctx context.Context, userID string, query *models.ListNotesQuery) ([]*models.NoteResponse, error)
	Get(ctx context.Context, userID, noteID string) (*models.NoteResponse, error)
	Create(ctx context.Context, userID string, req *models.CreateNoteRequest) (*models.NoteResponse, error)
	Update(ctx context.Context, userID, noteID string, req *models.UpdateNoteRequest) (*models.NoteResponse, error)
	Delete(ctx context.Context, userID, noteID string) error
}

type noteService struct {
	repo   repository.NoteRepository
	logger *zap.Logger
}

// NewNoteService creates a new note service
func NewNoteService(repo repository.NoteRepository, logger *zap.Logger) NoteService {
	return &noteService{repo: repo, logger: logger.Named("notes")}
}

func (s *noteService) List(ctx context.Context, userID string, query *models.ListNotesQuery) ([]*models.NoteResponse, error) {
	filter := query.Filter().Normalize()
	if err := filter.Validate(); err != nil {
		return nil, apperrors.NewValidationError("query", err.Error())
	}

	notes, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	metrics.TrackNoteOperation("list")
	return models.NewNoteListResponse(notes), nil
}

func (s *noteService) Get(ctx context.Context, userID, noteID string) (*models.NoteResponse, error) {
	note, err := s.repo.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	metrics.TrackNoteOperation("get")
	return models.NewNoteResponse(note), nil
}

func (s *noteService) Create(ctx context.Context, userID string, req *models.CreateNoteRequest) (*models.NoteResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title", "is required")
	}

	note, err := s.repo.Create(ctx, userID, title, deref(req.Content), deref(req.Tags))
	if err != nil {
		return nil, err
	}

	metrics.TrackNoteOperation("create")
	s.logger.Debug("note created", zap.String("user_id", userID), zap.String("note_id", note.ID))
	return models.NewNoteResponse(note), nil
}

// Update applies a partial patch. An empty patch still refreshes updatedAt.
func (s *noteService) Update(ctx context.Context, userID, noteID string, req *models.UpdateNoteRequest) (*models.NoteResponse, error) {
	patch := req.Patch()
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			title = untitled
		}
		patch.Title = &title
	}

	note, err := s.repo.Update(ctx, userID, noteID, patch)
	if err != nil {
		return nil, err
	}

	metrics.TrackNoteOperation("update")
	return models.NewNoteResponse(note), nil
}

func (s *noteService) Delete(ctx context.Context, userID, noteID string) error {
	if err := s.repo.Delete(ctx, userID, noteID); err != nil {
		return err
	}

	metrics.TrackNoteOperation("delete")
	s.logger.Debug("note deleted", zap.String("user_id", userID), zap.String("note_id", noteID))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
