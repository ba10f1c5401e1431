package database

import (
	"strings"

	"github.com/AyanMustafa/Anevo/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Manager struct {
	DB *gorm.DB
}

func NewManager() *Manager {
	return &Manager{}
}

// Connect opens the database named by dsn and migrates the schema.
// A postgres:// URL selects the postgres driver; anything else is
// treated as a sqlite path, which is what local development uses.
func (m *Manager) Connect(dsn string) error {
	dialector := gorm.Dialector(sqlite.Open(dsn))
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&models.User{}, &models.Note{}, &models.ShareGrant{}); err != nil {
		return err
	}

	m.DB = db
	return nil
}

func (m *Manager) Close() error {
	db, err := m.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
