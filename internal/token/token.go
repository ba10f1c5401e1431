package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is how long an issued session token stays valid.
const DefaultTTL = 24 * time.Hour

// ErrUnauthenticated covers every way a token can fail validation:
// malformed, signed with the wrong key, or expired. Callers respond
// the same way in all three cases.
var ErrUnauthenticated = errors.New("invalid or expired token")

type Claims struct {
	jwt.RegisteredClaims
}

// Service issues and validates stateless session tokens. Validity is a
// pure function of the signature and expiry; nothing is stored.
type Service struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewService(key []byte) *Service {
	return &Service{key: key, ttl: DefaultTTL, now: time.Now}
}

// WithClock replaces the time source, for expiry tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Issue(userID uuid.UUID) (string, error) {
	issued := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Validate checks signature and expiry and returns the embedded user id.
func (s *Service) Validate(raw string) (uuid.UUID, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.key, nil
		},
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrUnauthenticated
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return userID, nil
}
