package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"notely-be/internal/apperrors"
	"notely-be/internal/entities"
)

const (
	usersCollection = "users"
	notesCollection = "notes"
)

// EnsureMongoIndexes creates the unique email index and the owner/recency
// index notes are listed by. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	_, err = db.Collection(notesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("user_updated"),
	})
	if err != nil {
		return fmt.Errorf("failed to create notes index: %w", err)
	}
	return nil
}

type mongoUserRepository struct {
	users *mongo.Collection
	notes *mongo.Collection
	now   func() time.Time
}

// NewMongoUserRepository creates a MongoDB-backed user repository. Deleting a
// user also deletes their notes, mirroring the relational cascade.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		users: db.Collection(usersCollection),
		notes: db.Collection(notesCollection),
		now:   mongoNow,
	}
}

// mongoNow truncates to milliseconds, the resolution BSON dates keep.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *mongoUserRepository) Create(ctx context.Context, email, passwordHash string, name, profilePicture *string) (*entities.User, error) {
	now := r.now()
	user := &entities.User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   passwordHash,
		Name:           name,
		ProfilePicture: profilePicture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("user with this email: %w", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*entities.User, error) {
	var user entities.User
	err := r.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) Update(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	set := bson.M{"updated_at": r.now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.ProfilePicture != nil {
		set["profile_picture"] = *patch.ProfilePicture
	}
	if patch.PasswordHash != nil {
		set["password_hash"] = *patch.PasswordHash
	}

	var user entities.User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}

	if _, err := r.notes.DeleteMany(ctx, bson.M{"user_id": id}); err != nil {
		return fmt.Errorf("failed to delete notes of user: %w", err)
	}
	return nil
}

type mongoNoteRepository struct {
	notes *mongo.Collection
	now   func() time.Time
}

// NewMongoNoteRepository creates a MongoDB-backed note repository
func NewMongoNoteRepository(db *mongo.Database) NoteRepository {
	return &mongoNoteRepository{notes: db.Collection(notesCollection), now: mongoNow}
}

var mongoSortFields = map[entities.SortField]string{
	entities.SortByCreated: "created_at",
	entities.SortByUpdated: "updated_at",
	entities.SortByTitle:   "title",
}

// noteListQuery renders the owner-scoped filter and sort document.
func noteListQuery(userID string, filter entities.NoteFilter, now time.Time) (bson.M, bson.D, error) {
	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, nil, err
	}

	query := bson.M{"user_id": userID}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query["title"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	}
	if since, ok := filter.Since(now); ok {
		query["updated_at"] = bson.M{"$gte": since}
	}

	direction := -1
	if filter.SortOrder == entities.SortAsc {
		direction = 1
	}
	sort := bson.D{
		{Key: mongoSortFields[filter.SortBy], Value: direction},
		{Key: "_id", Value: direction},
	}
	return query, sort, nil
}

func (r *mongoNoteRepository) List(ctx context.Context, userID string, filter entities.NoteFilter) ([]*entities.Note, error) {
	query, sort, err := noteListQuery(userID, filter, r.now())
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(sort)
	if filter.SortBy == entities.SortByTitle {
		// strength 2 compares case-insensitively
		opts.SetCollation(&options.Collation{Locale: "en", Strength: 2})
	}

	cursor, err := r.notes.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := make([]*entities.Note, 0)
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	return notes, nil
}

func (r *mongoNoteRepository) Get(ctx context.Context, userID, noteID string) (*entities.Note, error) {
	var note entities.Note
	err := r.notes.FindOne(ctx, bson.M{"_id": noteID, "user_id": userID}).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &note, nil
}

func (r *mongoNoteRepository) Create(ctx context.Context, userID, title, content, tags string) (*entities.Note, error) {
	now := r.now()
	note := &entities.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Tags:      tags,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.notes.InsertOne(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func (r *mongoNoteRepository) Update(ctx context.Context, userID, noteID string, patch entities.NotePatch) (*entities.Note, error) {
	set := bson.M{"updated_at": r.now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}

	var note entities.Note
	err := r.notes.FindOneAndUpdate(ctx,
		bson.M{"_id": noteID, "user_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return &note, nil
}

func (r *mongoNoteRepository) Delete(ctx context.Context, userID, noteID string) error {
	result, err := r.notes.DeleteOne(ctx, bson.M{"_id": noteID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("note: %w", apperrors.ErrNotFound)
	}
	return nil
}
