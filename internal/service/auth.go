package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/libtrack/book-reserve/internal/errs"
	"github.com/libtrack/book-reserve/internal/model"
	"github.com/libtrack/book-reserve/pkg/auth"
)

const tokenTTL = 24 * time.Hour

func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (model.User, string, error) {
	role := req.Role
	if role == "" {
		role = model.RoleMember
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, "", errors.Wrap(err, "hash password")
	}

	user, err := s.repo.CreateUser(ctx, model.User{
		Name:         req.Name,
		Email:        req.Email,
		Tel:          req.Tel,
		Role:         role,
		PasswordHash: string(hash),
	})
	if err != nil {
		return model.User{}, "", err
	}

	token, err := issueToken(user)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (model.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return model.User{}, "", errs.ErrInvalidCredentials
		}
		return model.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.User{}, "", errs.ErrInvalidCredentials
	}

	token, err := issueToken(user)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	return s.repo.GetUser(ctx, id)
}

func issueToken(user model.User) (string, error) {
	claims := &auth.Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	claims.Profile.ID = user.ID.String()
	claims.Profile.Name = user.Name
	claims.Profile.Role = string(user.Role)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(auth.JWTKey)
}
