package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"notely-be/internal/apperrors"
	"notely-be/internal/entities"
)

// UserRepository defines the interface for user storage operations
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string, name, profilePicture *string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByID(ctx context.Context, id string) (*entities.User, error)
	Update(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error)
	// Delete removes the user and, through the foreign key, all of their notes.
	Delete(ctx context.Context, id string) error
}

const userColumns = "id, email, password_hash, name, profile_picture, created_at, updated_at"

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type userRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepository creates a new PostgreSQL-backed user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db, now: utcNow}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.ProfilePicture,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user; a duplicate email yields apperrors.ErrConflict.
func (r *userRepository) Create(ctx context.Context, email, passwordHash string, name, profilePicture *string) (*entities.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, name, profile_picture, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), email, passwordHash, name, profilePicture, r.now()))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("user with this email: %w", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// FindByEmail finds a user by email (exact match, as stored)
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// FindByID finds a user by ID (UUID)
func (r *userRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	if !validID(id) {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Update applies the non-nil patch fields and bumps updated_at.
func (r *userRepository) Update(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	if !validID(id) {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}

	query, args, err := newUpdate("users").
		SetIf("name", patch.Name).
		SetIf("profile_picture", patch.ProfilePicture).
		SetIf("password_hash", patch.PasswordHash).
		Set("updated_at", r.now()).
		Where("id", id).
		Returning(userColumns).
		Build()
	if err != nil {
		return nil, err
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}

	return nil
}

// validID reports whether id is a UUID; anything else cannot exist in the store.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
