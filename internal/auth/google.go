package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// Identity is what the application needs from a verified Google ID
// token. The provider handshake itself is opaque to the rest of the
// code.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
}

type GoogleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

type googleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) GoogleVerifier {
	return &googleVerifier{clientID: clientID}
}

func (v *googleVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("id token validation: %w", err)
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("id token carries no email claim")
	}
	name, _ := payload.Claims["name"].(string)
	return &Identity{
		SubjectID: payload.Subject,
		Email:     email,
		Name:      name,
	}, nil
}
