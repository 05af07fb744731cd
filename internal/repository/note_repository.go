package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"notely-be/internal/apperrors"
	"notely-be/internal/entities"
)

// NoteRepository defines the interface for note storage operations. Every
// method is keyed by (userID, noteID); a note owned by someone else is
// reported as apperrors.ErrNotFound.
type NoteRepository interface {
	List(ctx context.Context, userID string, filter entities.NoteFilter) ([]*entities.Note, error)
	Get(ctx context.Context, userID, noteID string) (*entities.Note, error)
	Create(ctx context.Context, userID, title, content, tags string) (*entities.Note, error)
	Update(ctx context.Context, userID, noteID string, patch entities.NotePatch) (*entities.Note, error)
	Delete(ctx context.Context, userID, noteID string) error
}

const noteColumns = "id, title, content, tags, user_id, created_at, updated_at"

var sortColumns = map[entities.SortField]string{
	entities.SortByCreated: "created_at",
	entities.SortByUpdated: "updated_at",
	entities.SortByTitle:   "LOWER(title)",
}

type noteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewNoteRepository creates a new PostgreSQL-backed note repository
func NewNoteRepository(db *sql.DB) NoteRepository {
	return &noteRepository{db: db, now: utcNow}
}

func scanNote(row rowScanner) (*entities.Note, error) {
	var note entities.Note
	err := row.Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.Tags,
		&note.UserID,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// buildListQuery renders the owner-scoped list query. Only whitelisted sort
// columns and directions are interpolated; everything else is a parameter.
func buildListQuery(userID string, filter entities.NoteFilter, now time.Time) (string, []any, error) {
	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	args := []any{userID}
	sb.WriteString("SELECT " + noteColumns + " FROM notes WHERE user_id = $1")

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
		fmt.Fprintf(&sb, " AND LOWER(title) LIKE $%d", len(args))
	}
	if since, ok := filter.Since(now); ok {
		args = append(args, since)
		fmt.Fprintf(&sb, " AND updated_at >= $%d", len(args))
	}

	direction := "DESC"
	if filter.SortOrder == entities.SortAsc {
		direction = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", sortColumns[filter.SortBy], direction, direction)

	return sb.String(), args, nil
}

// escapeLike neutralizes LIKE wildcards so search terms match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns the user's notes, filtered and sorted; never nil.
func (r *noteRepository) List(ctx context.Context, userID string, filter entities.NoteFilter) ([]*entities.Note, error) {
	notes := make([]*entities.Note, 0)
	if !validID(userID) {
		return notes, nil
	}

	query, args, err := buildListQuery(userID, filter, r.now())
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}

func (r *noteRepository) Get(ctx context.Context, userID, noteID string) (*entities.Note, error) {
	if !validID(userID) || !validID(noteID) {
		return nil, fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}

	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND user_id = $2`

	note, err := scanNote(r.db.QueryRowContext(ctx, query, noteID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// Create reports ErrNotFound when the owner no longer exists, e.g. an account
// deleted while its token is still valid.
func (r *noteRepository) Create(ctx context.Context, userID, title, content, tags string) (*entities.Note, error) {
	if !validID(userID) {
		return nil, fmt.Errorf("owner: %w", apperrors.ErrNotFound)
	}

	query := `
		INSERT INTO notes (id, title, content, tags, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + noteColumns

	note, err := scanNote(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), title, content, tags, userID, r.now()))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return nil, fmt.Errorf("owner: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return note, nil
}

// Update applies the patch in one statement with the ownership predicate in
// the WHERE clause. updated_at moves forward even when the patch is empty.
func (r *noteRepository) Update(ctx context.Context, userID, noteID string, patch entities.NotePatch) (*entities.Note, error) {
	if !validID(userID) || !validID(noteID) {
		return nil, fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}

	query, args, err := newUpdate("notes").
		SetIf("title", patch.Title).
		SetIf("content", patch.Content).
		SetIf("tags", patch.Tags).
		Set("updated_at", r.now()).
		Where("id", noteID).
		Where("user_id", userID).
		Returning(noteColumns).
		Build()
	if err != nil {
		return nil, err
	}

	note, err := scanNote(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	return note, nil
}

func (r *noteRepository) Delete(ctx context.Context, userID, noteID string) error {
	if !validID(userID) || !validID(noteID) {
		return fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}

	return nil
}
