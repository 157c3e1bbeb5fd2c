package auth

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/idtoken"
)

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(map[string]string{"tok-alice": "alice"})
	ctx := context.Background()

	id, err := v.Verify(ctx, "tok-alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Subject != "alice" {
		t.Errorf("Subject = %q, want alice", id.Subject)
	}
	if id.Email != "alice@example.test" {
		t.Errorf("Email = %q", id.Email)
	}

	if _, err := v.Verify(ctx, "unknown"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unknown token: got %v, want ErrInvalidToken", err)
	}
}

func TestGoogleVerifierRequiresAudience(t *testing.T) {
	if _, err := NewGoogleVerifier(""); err == nil {
		t.Fatal("expected error for empty audience")
	}
}

func TestGoogleVerifierMapsClaims(t *testing.T) {
	v, err := NewGoogleVerifier("client-id")
	if err != nil {
		t.Fatalf("NewGoogleVerifier: %v", err)
	}
	v.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		if audience != "client-id" {
			t.Errorf("audience = %q", audience)
		}
		return &idtoken.Payload{
			Subject: "sub-123",
			Claims: map[string]interface{}{
				"email":       "alice@example.com",
				"given_name":  "Alice",
				"family_name": "Smith",
			},
		}, nil
	}

	id, err := v.Verify(context.Background(), "some-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Subject != "sub-123" || id.Email != "alice@example.com" || id.FirstName != "Alice" || id.LastName != "Smith" {
		t.Errorf("unexpected identity: %+v", id)
	}
}

func TestGoogleVerifierFailureIsOpaque(t *testing.T) {
	v, _ := NewGoogleVerifier("client-id")
	v.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		return nil, errors.New("token expired at 12:00")
	}

	_, err := v.Verify(context.Background(), "stale-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestGoogleVerifierRejectsEmptySubject(t *testing.T) {
	v, _ := NewGoogleVerifier("client-id")
	v.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		return &idtoken.Payload{}, nil
	}

	if _, err := v.Verify(context.Background(), "anonymous"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}
