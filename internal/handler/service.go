package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/libtrack/book-reserve/internal/model"
	"github.com/libtrack/book-reserve/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type Service interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.User, string, error)
	Login(ctx context.Context, req model.LoginRequest) (model.User, string, error)
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)

	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, patch model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error

	ListReservations(ctx context.Context, actor model.Actor) ([]model.ReservationDetail, error)
	GetReservation(ctx context.Context, id uuid.UUID, actor model.Actor) (model.ReservationDetail, error)
	CreateReservation(ctx context.Context, req model.CreateReservationRequest, actor model.Actor) (model.Reservation, error)
	UpdateReservation(ctx context.Context, id uuid.UUID, patch model.UpdateReservationRequest, actor model.Actor) (model.ReservationDetail, error)
	DeleteReservation(ctx context.Context, id uuid.UUID, actor model.Actor) error
}

var _ Service = (*service.Service)(nil)
