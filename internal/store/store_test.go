package store

import (
	"testing"

	"github.com/AyanMustafa/Anevo/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory sqlite database per test. The pool is
// pinned to one connection so every query sees the same memory store.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Note{}, &models.ShareGrant{}))
	return db
}

type fixture struct {
	users  *UserStore
	notes  *NoteStore
	shares *ShareStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	users := NewUserStore(db)
	notes := NewNoteStore(db)
	return &fixture{
		users:  users,
		notes:  notes,
		shares: NewShareStore(db, notes, users),
	}
}
