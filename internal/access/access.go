// Package access resolves the effective permission a user holds on a
// note. Every store mutation and disclosure goes through Resolve; no
// other code compares owners or grants directly.
package access

import (
	"github.com/AyanMustafa/Anevo/internal/models"
	"github.com/google/uuid"
)

type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelEdit
	LevelOwner
)

func (l Level) String() string {
	switch l {
	case LevelOwner:
		return "owner"
	case LevelEdit:
		return "edit"
	case LevelRead:
		return "read"
	default:
		return "none"
	}
}

// CanRead reports whether the level allows seeing the note at all.
func (l Level) CanRead() bool { return l >= LevelRead }

// CanEdit reports whether the level allows changing title/content/tags.
func (l Level) CanEdit() bool { return l >= LevelEdit }

// CanManage reports whether the level allows delete, share and unshare.
// Only the owner manages a note; an edit grant does not extend this far.
func (l Level) CanManage() bool { return l == LevelOwner }

// Resolve computes the effective permission of user on note. The owner
// check short-circuits: a grant naming the owner (which the stores
// refuse to create) would be ignored. grant is nil when no ShareGrant
// row exists for (note, user).
func Resolve(userID uuid.UUID, note *models.Note, grant *models.ShareGrant) Level {
	if note.OwnerID == userID {
		return LevelOwner
	}
	if grant == nil {
		return LevelNone
	}
	if grant.CanEdit {
		return LevelEdit
	}
	return LevelRead
}
