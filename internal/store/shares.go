package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/AyanMustafa/Anevo/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantInfo is one entry of a note's share list, owner-only visibility.
type GrantInfo struct {
	Username  string    `json:"username"`
	CanEdit   bool      `json:"canEdit"`
	GrantedAt time.Time `json:"grantedAt"`
}

// SharedNote is a note visible through a grant, annotated with the
// owner's identity and the grant level so the client can label
// provenance and disable edit controls.
type SharedNote struct {
	Note          models.Note
	OwnerUsername string
	CanEdit       bool
}

// ShareStore persists grants of a note to a user. All owner checks go
// through the note store's permission resolution.
type ShareStore struct {
	db    *gorm.DB
	notes *NoteStore
	users *UserStore
}

func NewShareStore(db *gorm.DB, notes *NoteStore, users *UserStore) *ShareStore {
	return &ShareStore{db: db, notes: notes, users: users}
}

// Share grants granteeUsername access to the note. Re-sharing with a
// different level updates the existing grant in place; there is never
// more than one grant per (note, grantee) pair.
func (s *ShareStore) Share(ctx context.Context, noteID, callerID uuid.UUID, granteeUsername string, canEdit bool) (*models.ShareGrant, error) {
	grantee, err := s.users.FindByUsername(ctx, granteeUsername)
	if err != nil {
		return nil, err
	}

	note, err := s.notes.fetch(ctx, noteID)
	if err != nil {
		return nil, err
	}
	level, err := s.notes.Permission(ctx, callerID, note)
	if err != nil {
		return nil, err
	}
	if !level.CanManage() {
		return nil, fmt.Errorf("only the owner can share note %s: %w", noteID, ErrForbidden)
	}

	if grantee.ID == note.OwnerID {
		return nil, fmt.Errorf("%w: cannot share a note with yourself", ErrInvalidInput)
	}

	grant := models.ShareGrant{
		NoteID:    noteID,
		GranteeID: grantee.ID,
		CanEdit:   canEdit,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "note_id"}, {Name: "grantee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"can_edit"}),
	}).Create(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// Unshare removes the grant for granteeUsername. Removing a grant that
// does not exist is a no-op, not an error, so unshare is idempotent.
func (s *ShareStore) Unshare(ctx context.Context, noteID, callerID uuid.UUID, granteeUsername string) error {
	grantee, err := s.users.FindByUsername(ctx, granteeUsername)
	if err != nil {
		return err
	}

	note, err := s.notes.fetch(ctx, noteID)
	if err != nil {
		return err
	}
	level, err := s.notes.Permission(ctx, callerID, note)
	if err != nil {
		return err
	}
	if !level.CanManage() {
		return fmt.Errorf("only the owner can unshare note %s: %w", noteID, ErrForbidden)
	}

	return s.db.WithContext(ctx).
		Where("note_id = ? AND grantee_id = ?", noteID, grantee.ID).
		Delete(&models.ShareGrant{}).Error
}

// ListGrants returns every grantee of the note with their level.
// Owner-only: grantees cannot see who else a note is shared with.
func (s *ShareStore) ListGrants(ctx context.Context, noteID, callerID uuid.UUID) ([]GrantInfo, error) {
	note, err := s.notes.fetch(ctx, noteID)
	if err != nil {
		return nil, err
	}
	level, err := s.notes.Permission(ctx, callerID, note)
	if err != nil {
		return nil, err
	}
	if !level.CanManage() {
		return nil, fmt.Errorf("only the owner can list shares of note %s: %w", noteID, ErrForbidden)
	}

	var grants []models.ShareGrant
	if err := s.db.WithContext(ctx).Where("note_id = ?", noteID).Find(&grants).Error; err != nil {
		return nil, err
	}
	infos := make([]GrantInfo, 0, len(grants))
	for _, g := range grants {
		user, err := s.users.FindByID(ctx, g.GranteeID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		infos = append(infos, GrantInfo{
			Username:  user.Username,
			CanEdit:   g.CanEdit,
			GrantedAt: g.CreatedAt,
		})
	}
	return infos, nil
}

// ListSharedWith returns every note shared with the user, most recently
// edited first, each annotated with the owner and the grant level.
func (s *ShareStore) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]SharedNote, error) {
	var grants []models.ShareGrant
	if err := s.db.WithContext(ctx).Where("grantee_id = ?", userID).Find(&grants).Error; err != nil {
		return nil, err
	}

	shared := make([]SharedNote, 0, len(grants))
	for _, g := range grants {
		note, err := s.notes.fetch(ctx, g.NoteID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		owner, err := s.users.FindByID(ctx, note.OwnerID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		shared = append(shared, SharedNote{
			Note:          *note,
			OwnerUsername: owner.Username,
			CanEdit:       g.CanEdit,
		})
	}
	sort.SliceStable(shared, func(i, j int) bool {
		return shared[i].Note.UpdatedAt.After(shared[j].Note.UpdatedAt)
	})
	return shared, nil
}

// SharedWithUsernames lists the usernames a note is currently shared
// with, for annotating the owner's note list.
func (s *ShareStore) SharedWithUsernames(ctx context.Context, noteID uuid.UUID) ([]string, error) {
	var grants []models.ShareGrant
	if err := s.db.WithContext(ctx).Where("note_id = ?", noteID).Find(&grants).Error; err != nil {
		return nil, err
	}
	usernames := make([]string, 0, len(grants))
	for _, g := range grants {
		user, err := s.users.FindByID(ctx, g.GranteeID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		usernames = append(usernames, user.Username)
	}
	return usernames, nil
}

// Audience returns the user ids that should be told a note changed:
// the owner plus every grantee.
func (s *ShareStore) Audience(ctx context.Context, note *models.Note) ([]uuid.UUID, error) {
	var grants []models.ShareGrant
	if err := s.db.WithContext(ctx).Where("note_id = ?", note.ID).Find(&grants).Error; err != nil {
		return nil, err
	}
	audience := make([]uuid.UUID, 0, len(grants)+1)
	audience = append(audience, note.OwnerID)
	for _, g := range grants {
		audience = append(audience, g.GranteeID)
	}
	return audience, nil
}
