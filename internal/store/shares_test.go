package store

import (
	"context"
	"testing"

	"github.com/AyanMustafa/Anevo/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareAndListSharedWith(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := registerUser(t, f, "alice")
	bob := registerUser(t, f, "bob")

	note, err := f.notes.Create(ctx, alice.ID, "Groceries", "milk, eggs", nil)
	require.NoError(t, err)

	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", false)
	require.NoError(t, err)

	shared, err := f.shares.ListSharedWith(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, note.ID, shared[0].Note.ID)
	assert.Equal(t, "alice", shared[0].OwnerUsername)
	assert.False(t, shared[0].CanEdit)
}

func TestShareIsIdempotentOnLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := registerUser(t, f, "alice")
	bob := registerUser(t, f, "bob")

	note, err := f.notes.Create(ctx, alice.ID, "Title", "", nil)
	require.NoError(t, err)

	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", true)
	require.NoError(t, err)
	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", true)
	require.NoError(t, err)

	var grants []models.ShareGrant
	require.NoError(t, f.users.db.Where("note_id = ?", note.ID).Find(&grants).Error)
	require.Len(t, grants, 1, "one grant per (note, grantee) pair")
	assert.Equal(t, bob.ID, grants[0].GranteeID)
	assert.True(t, grants[0].CanEdit)
}

func TestReShareUpdatesLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := registerUser(t, f, "alice")
	bob := registerUser(t, f, "bob")

	note, err := f.notes.Create(ctx, alice.ID, "Title", "", nil)
	require.NoError(t, err)

	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", false)
	require.NoError(t, err)
	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", true)
	require.NoError(t, err)

	shared, err := f.shares.ListSharedWith(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.True(t, shared[0].CanEdit)
}

func TestShareFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := registerUser(t, f, "alice")
	bob := registerUser(t, f, "bob")

	note, err := f.notes.Create(ctx, alice.ID, "Title", "", nil)
	require.NoError(t, err)

	_, err = f.shares.Share(ctx, note.ID, alice.ID, "nobody", false)
	assert.ErrorIs(t, err, ErrNotFound, "unknown grantee")

	_, err = f.shares.Share(ctx, note.ID, bob.ID, "bob", false)
	assert.ErrorIs(t, err, ErrForbidden, "only the owner shares")

	_, err = f.shares.Share(ctx, note.ID, alice.ID, "alice", true)
	assert.ErrorIs(t, err, ErrInvalidInput, "no self-share")

	// Self-share keeps failing regardless of other grant state.
	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", true)
	require.NoError(t, err)
	_, err = f.shares.Share(ctx, note.ID, alice.ID, "alice", true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUnshare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := registerUser(t, f, "alice")
	bob := registerUser(t, f, "bob")

	note, err := f.notes.Create(ctx, alice.ID, "Title", "", nil)
	require.NoError(t, err)
	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", true)
	require.NoError(t, err)

	require.NoError(t, f.shares.Unshare(ctx, note.ID, alice.ID, "bob"))

	shared, err := f.shares.ListSharedWith(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, shared)

	// Removing a grant that no longer exists is a no-op.
	assert.NoError(t, f.shares.Unshare(ctx, note.ID, alice.ID, "bob"))

	assert.ErrorIs(t, f.shares.Unshare(ctx, note.ID, bob.ID, "bob"), ErrForbidden)
}

func TestListGrantsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := registerUser(t, f, "alice")
	bob := registerUser(t, f, "bob")
	_ = registerUser(t, f, "carol")

	note, err := f.notes.Create(ctx, alice.ID, "Title", "", nil)
	require.NoError(t, err)
	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", true)
	require.NoError(t, err)
	_, err = f.shares.Share(ctx, note.ID, alice.ID, "carol", false)
	require.NoError(t, err)

	grants, err := f.shares.ListGrants(ctx, note.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, grants, 2)

	byName := map[string]bool{}
	for _, g := range grants {
		byName[g.Username] = g.CanEdit
	}
	assert.True(t, byName["bob"])
	assert.False(t, byName["carol"])

	_, err = f.shares.ListGrants(ctx, note.ID, bob.ID)
	assert.ErrorIs(t, err, ErrForbidden, "grantees cannot see the share list")
}

func TestAudience(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := registerUser(t, f, "alice")
	bob := registerUser(t, f, "bob")

	note, err := f.notes.Create(ctx, alice.ID, "Title", "", nil)
	require.NoError(t, err)
	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", false)
	require.NoError(t, err)

	audience, err := f.shares.Audience(ctx, note)
	require.NoError(t, err)
	assert.ElementsMatch(t, audience, []uuid.UUID{alice.ID, bob.ID})
}

func TestSharedWithUsernames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := registerUser(t, f, "alice")
	registerUser(t, f, "bob")

	note, err := f.notes.Create(ctx, alice.ID, "Title", "", nil)
	require.NoError(t, err)
	_, err = f.shares.Share(ctx, note.ID, alice.ID, "bob", false)
	require.NoError(t, err)

	usernames, err := f.shares.SharedWithUsernames(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, usernames)
}
