package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	GoogleID     *string   `gorm:"uniqueIndex" json:"-"`
	AuthProvider string    `gorm:"default:local" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"ownerId"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Tags      string    `gorm:"type:text;not null;default:'[]'" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TagList decodes the stored tag column. A row written outside the
// application with malformed tags decodes as no tags rather than an error.
func (n *Note) TagList() []string {
	tags := []string{}
	if n.Tags != "" {
		_ = json.Unmarshal([]byte(n.Tags), &tags)
	}
	return tags
}

func (n *Note) SetTags(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	n.Tags = string(raw)
}

// ShareGrant authorizes a user to read or edit a note they do not own.
// One row per (note, grantee) pair; re-sharing updates CanEdit in place.
type ShareGrant struct {
	NoteID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"noteId"`
	GranteeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"granteeId"`
	CanEdit   bool      `gorm:"not null" json:"canEdit"`
	CreatedAt time.Time `json:"grantedAt"`
}
