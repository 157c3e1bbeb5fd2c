package auth

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/idtoken"
)

// GoogleVerifier validates Google-issued ID tokens for a fixed audience.
type GoogleVerifier struct {
	audience string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

var _ TokenVerifier = (*GoogleVerifier)(nil)

func NewGoogleVerifier(audience string) (*GoogleVerifier, error) {
	if audience == "" {
		return nil, fmt.Errorf("google verifier: audience is required")
	}
	return &GoogleVerifier{
		audience: audience,
		validate: idtoken.Validate,
	}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	payload, err := v.validate(ctx, token, v.audience)
	if err != nil {
		slog.DebugContext(ctx, "Token validation failed", "error", err)
		return Identity{}, ErrInvalidToken
	}
	if payload.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		Subject:   payload.Subject,
		Email:     claimString(payload.Claims, "email"),
		FirstName: claimString(payload.Claims, "given_name"),
		LastName:  claimString(payload.Claims, "family_name"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
