package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AyanMustafa/Anevo/internal/access"
	"github.com/AyanMustafa/Anevo/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotePatch carries a partial update; nil fields are left untouched.
type NotePatch struct {
	Title   *string
	Content *string
	Tags    *[]string
}

type NoteStore struct {
	db *gorm.DB
}

func NewNoteStore(db *gorm.DB) *NoteStore {
	return &NoteStore{db: db}
}

func (s *NoteStore) Create(ctx context.Context, ownerID uuid.UUID, title, content string, tags []string) (*models.Note, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	note := models.Note{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   title,
		Content: content,
	}
	note.SetTags(tags)
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// Get returns the note together with the requester's effective
// permission. A requester with no permission at all gets ErrForbidden,
// not the note.
func (s *NoteStore) Get(ctx context.Context, noteID, requesterID uuid.UUID) (*models.Note, access.Level, error) {
	note, err := s.fetch(ctx, noteID)
	if err != nil {
		return nil, access.LevelNone, err
	}
	level, err := s.Permission(ctx, requesterID, note)
	if err != nil {
		return nil, access.LevelNone, err
	}
	if !level.CanRead() {
		return nil, access.LevelNone, fmt.Errorf("note %s: %w", noteID, ErrForbidden)
	}
	return note, level, nil
}

// Update applies patch if the requester is the owner or holds an edit
// grant, refreshing the last-edited timestamp. The row is written with
// a single UPDATE so a patch fully applies or fully fails.
func (s *NoteStore) Update(ctx context.Context, noteID, requesterID uuid.UUID, patch NotePatch) (*models.Note, error) {
	note, err := s.fetch(ctx, noteID)
	if err != nil {
		return nil, err
	}
	level, err := s.Permission(ctx, requesterID, note)
	if err != nil {
		return nil, err
	}
	if !level.CanEdit() {
		return nil, fmt.Errorf("note %s: %w", noteID, ErrForbidden)
	}

	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Tags != nil {
		note.SetTags(*patch.Tags)
	}
	note.UpdatedAt = time.Now()

	err = s.db.WithContext(ctx).Model(&models.Note{}).
		Where("id = ?", note.ID).
		Updates(map[string]interface{}{
			"title":      note.Title,
			"content":    note.Content,
			"tags":       note.Tags,
			"updated_at": note.UpdatedAt,
		}).Error
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Delete removes the note and, in the same transaction, every grant
// referencing it. Owner only; an edit grant does not allow deletion.
func (s *NoteStore) Delete(ctx context.Context, noteID, requesterID uuid.UUID) error {
	note, err := s.fetch(ctx, noteID)
	if err != nil {
		return err
	}
	level, err := s.Permission(ctx, requesterID, note)
	if err != nil {
		return err
	}
	if !level.CanManage() {
		return fmt.Errorf("note %s: %w", noteID, ErrForbidden)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", noteID).Delete(&models.ShareGrant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", noteID).Delete(&models.Note{}).Error
	})
}

// ListOwned returns the user's own notes, most recently edited first.
func (s *NoteStore) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// Permission resolves the requester's effective level on note, feeding
// the grant row (if any) through access.Resolve. This is the single
// authorization path for every note and share operation.
func (s *NoteStore) Permission(ctx context.Context, userID uuid.UUID, note *models.Note) (access.Level, error) {
	if note.OwnerID == userID {
		return access.Resolve(userID, note, nil), nil
	}
	var grant models.ShareGrant
	err := s.db.WithContext(ctx).
		Where("note_id = ? AND grantee_id = ?", note.ID, userID).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return access.Resolve(userID, note, nil), nil
	}
	if err != nil {
		return access.LevelNone, err
	}
	return access.Resolve(userID, note, &grant), nil
}

func (s *NoteStore) fetch(ctx context.Context, noteID uuid.UUID) (*models.Note, error) {
	var note models.Note
	err := s.db.WithContext(ctx).Where("id = ?", noteID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}
