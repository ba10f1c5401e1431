package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AyanMustafa/Anevo/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bcrypt rejects inputs over 72 bytes, so the bound is enforced up
// front with a clear message instead of surfacing a hashing error.
const (
	minPasswordLen = 6
	maxPasswordLen = 72
)

// UserStore persists user identities for both password and Google
// accounts.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Register creates a local-provider user with a bcrypt password hash.
func (s *UserStore) Register(ctx context.Context, username, password, email, name string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, fmt.Errorf("%w: username must not be empty", ErrInvalidInput)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password cannot be longer than %d characters", ErrInvalidInput, maxPasswordLen)
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	err = s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: username already taken", ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = username
	}
	user := models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		AuthProvider: models.ProviderLocal,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// A concurrent registration can slip in between the lookups
		// above and this insert; the unique indexes are the backstop.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: username or email already taken", ErrConflict)
		}
		return nil, err
	}
	return &user, nil
}

// FindByIdentifier looks a user up by username or email, for login.
func (s *UserStore) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q: %w", identifier, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies identifier + password for login. A Google-only
// account has no password; that case gets a descriptive InvalidInput
// rather than the generic credentials failure.
func (s *UserStore) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if user.AuthProvider == models.ProviderGoogle {
		return nil, fmt.Errorf("%w: this account uses Google sign-in", ErrInvalidInput)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// UpsertFromOAuth finds or creates the user for a verified Google
// identity. Lookup precedence is explicit: the Google subject id first,
// then the email as fallback for accounts created before the subject id
// was recorded. An email match on a password account is a Conflict; two
// distinct identities are never merged silently. Repeated calls with
// the same subject id return the same user.
func (s *UserStore) UpsertFromOAuth(ctx context.Context, subjectID, email, name string) (*models.User, error) {
	if subjectID == "" || email == "" {
		return nil, fmt.Errorf("%w: missing subject id or email", ErrInvalidInput)
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("google_id = ?", subjectID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.AuthProvider != models.ProviderGoogle {
			return nil, fmt.Errorf("%w: email registered with username/password", ErrConflict)
		}
		user.GoogleID = &subjectID
		if name != "" {
			user.Name = name
		}
		if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username, err := s.usernameFromEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = username
	}
	user = models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		Name:         name,
		GoogleID:     &subjectID,
		AuthProvider: models.ProviderGoogle,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: account already exists", ErrConflict)
		}
		return nil, err
	}
	return &user, nil
}

// usernameFromEmail derives a unique username from the email local
// part, appending a numeric suffix until one is free.
func (s *UserStore) usernameFromEmail(ctx context.Context, email string) (string, error) {
	base := email
	if at := strings.Index(email, "@"); at > 0 {
		base = email[:at]
	}
	candidate := base
	for counter := 1; ; counter++ {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("username = ?", candidate).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, counter)
	}
}
