package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"notely-be/internal/apperrors"
	"notely-be/internal/entities"
)

// MemoryStore keeps users and notes in process memory. It backs the
// "memory" store driver used for local development and tests; nothing
// survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]entities.User
	notes map[string]entities.Note
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(utcNow)
}

// NewMemoryStoreWithClock uses now for every timestamp it writes.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		users: make(map[string]entities.User),
		notes: make(map[string]entities.Note),
		now:   now,
	}
}

// Users returns the store's user repository.
func (s *MemoryStore) Users() UserRepository { return (*memoryUsers)(s) }

// Notes returns the store's note repository.
func (s *MemoryStore) Notes() NoteRepository { return (*memoryNotes)(s) }

// Len reports how many users and notes are stored.
func (s *MemoryStore) Len() (users, notes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.notes)
}

type memoryUsers MemoryStore

func (r *memoryUsers) Create(_ context.Context, email, passwordHash string, name, profilePicture *string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return nil, fmt.Errorf("user with this email: %w", apperrors.ErrConflict)
		}
	}

	now := r.now()
	user := entities.User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   passwordHash,
		Name:           cloneString(name),
		ProfilePicture: cloneString(profilePicture),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.users[user.ID] = user
	return &user, nil
}

func (r *memoryUsers) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
}

func (r *memoryUsers) FindByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	return &u, nil
}

func (r *memoryUsers) Update(_ context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	if patch.Name != nil {
		u.Name = cloneString(patch.Name)
	}
	if patch.ProfilePicture != nil {
		u.ProfilePicture = cloneString(patch.ProfilePicture)
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	u.UpdatedAt = r.now()
	r.users[id] = u
	return &u, nil
}

// Delete removes the user and every note they own.
func (r *memoryUsers) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	delete(r.users, id)
	for noteID, n := range r.notes {
		if n.UserID == id {
			delete(r.notes, noteID)
		}
	}
	return nil
}

type memoryNotes MemoryStore

func (r *memoryNotes) List(_ context.Context, userID string, filter entities.NoteFilter) ([]*entities.Note, error) {
	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	since, windowed := filter.Since(r.now())
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	r.mu.RLock()
	notes := make([]*entities.Note, 0)
	for _, n := range r.notes {
		if n.UserID != userID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(n.Title), search) {
			continue
		}
		if windowed && n.UpdatedAt.Before(since) {
			continue
		}
		notes = append(notes, &n)
	}
	r.mu.RUnlock()

	sort.Slice(notes, func(i, j int) bool {
		if filter.SortOrder == entities.SortDesc {
			return noteLess(notes[j], notes[i], filter.SortBy)
		}
		return noteLess(notes[i], notes[j], filter.SortBy)
	})
	return notes, nil
}

// noteLess orders by the sort field, then by id so the order is total.
func noteLess(a, b *entities.Note, field entities.SortField) bool {
	switch field {
	case entities.SortByTitle:
		at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if at != bt {
			return at < bt
		}
	case entities.SortByCreated:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	default:
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
	}
	return a.ID < b.ID
}

func (r *memoryNotes) Get(_ context.Context, userID, noteID string) (*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}
	return &n, nil
}

func (r *memoryNotes) Create(_ context.Context, userID, title, content, tags string) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return nil, fmt.Errorf("owner: %w", apperrors.ErrNotFound)
	}

	now := r.now()
	note := entities.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Tags:      tags,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.notes[note.ID] = note
	return &note, nil
}

func (r *memoryNotes) Update(_ context.Context, userID, noteID string, patch entities.NotePatch) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.Tags != nil {
		n.Tags = *patch.Tags
	}
	n.UpdatedAt = r.now()
	r.notes[noteID] = n
	return &n, nil
}

func (r *memoryNotes) Delete(_ context.Context, userID, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[noteID]
	if !ok || n.UserID != userID {
		return fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}
	delete(r.notes, noteID)
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
