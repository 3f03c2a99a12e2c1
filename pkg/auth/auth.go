package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// JWTKey signs and verifies access tokens. Overridden from config at startup.
var JWTKey = []byte("book-reserve-dev-key")

type Claims struct {
	Profile struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"profile"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the acting user as established by the session middleware.
type Identity struct {
	ID   string
	Name string
	Role string
}

type ctxKey struct{}

func SetAuthContext(ctx context.Context, id, name, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, Identity{ID: id, Name: name, Role: role})
}

func FromContext(ctx context.Context) (Identity, error) {
	ident, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || ident.ID == "" {
		return Identity{}, errors.New("no identity in context")
	}
	return ident, nil
}
