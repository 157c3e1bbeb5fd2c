package auth

import "context"

// StaticVerifier maps opaque tokens to subjects from configuration.
// Intended for local development and tests; never for production.
type StaticVerifier struct {
	tokens map[string]string
}

var _ TokenVerifier = (*StaticVerifier)(nil)

func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	copied := make(map[string]string, len(tokens))
	for token, subject := range tokens {
		copied[token] = subject
	}
	return &StaticVerifier{tokens: copied}
}

func (v *StaticVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	subject, ok := v.tokens[token]
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Subject: subject, Email: subject + "@example.test"}, nil
}
