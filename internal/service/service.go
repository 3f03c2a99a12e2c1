package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/libtrack/book-reserve/internal/errs"
	"github.com/libtrack/book-reserve/internal/model"
	"github.com/libtrack/book-reserve/internal/repository"
	"github.com/libtrack/book-reserve/pkg/kafka"
)

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	events EventPublisher
}

func NewService(repo repository.Repository, events EventPublisher, log *zap.Logger) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		events: events,
	}
}

func (s *Service) ListBooks(ctx context.Context) ([]model.Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *Service) GetBook(ctx context.Context, id uuid.UUID) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, model.Book{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Publisher:       req.Publisher,
		AvailableAmount: req.AvailableAmount,
		CoverPicture:    req.CoverPicture,
	})
}

func (s *Service) UpdateBook(ctx context.Context, id uuid.UUID, patch model.UpdateBookRequest) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.ISBN != nil {
		book.ISBN = *patch.ISBN
	}
	if patch.Publisher != nil {
		book.Publisher = *patch.Publisher
	}
	if patch.AvailableAmount != nil {
		book.AvailableAmount = *patch.AvailableAmount
	}
	if patch.CoverPicture != nil {
		book.CoverPicture = *patch.CoverPicture
	}
	return s.repo.UpdateBook(ctx, book)
}

func (s *Service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteBook(ctx, id)
}

func (s *Service) ListReservations(ctx context.Context, actor model.Actor) ([]model.ReservationDetail, error) {
	var userID *uuid.UUID
	if !actor.Role.CanModerate() {
		userID = &actor.ID
	}
	return s.repo.ListReservations(ctx, userID)
}

func (s *Service) GetReservation(ctx context.Context, id uuid.UUID, actor model.Actor) (model.ReservationDetail, error) {
	detail, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	if err := canView(detail.Reservation, actor); err != nil {
		return model.ReservationDetail{}, err
	}
	return detail, nil
}

func (s *Service) CreateReservation(ctx context.Context, req model.CreateReservationRequest, actor model.Actor) (model.Reservation, error) {
	active, err := s.repo.CountActiveReservations(ctx, actor.ID)
	if err != nil {
		return model.Reservation{}, err
	}
	bookExists := true
	if _, err := s.repo.GetBook(ctx, req.Book); err != nil {
		if !errors.Is(err, errs.ErrBookNotFound) {
			return model.Reservation{}, err
		}
		bookExists = false
	}

	rsv, err := newReservation(req, actor, active, bookExists, todayDate())
	if err != nil {
		return model.Reservation{}, err
	}

	created, err := s.repo.CreateReservation(ctx, rsv)
	if err != nil {
		return model.Reservation{}, err
	}
	s.publish("reservation_created", created)
	return created, nil
}

func (s *Service) UpdateReservation(ctx context.Context, id uuid.UUID, patch model.UpdateReservationRequest, actor model.Actor) (model.ReservationDetail, error) {
	existing, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return model.ReservationDetail{}, err
	}

	merged, err := mergeReservation(existing.Reservation, patch, actor, todayDate())
	if err != nil {
		return model.ReservationDetail{}, err
	}
	if patch.Book != nil && *patch.Book != existing.BookID {
		if _, err := s.repo.GetBook(ctx, *patch.Book); err != nil {
			return model.ReservationDetail{}, err
		}
	}

	if err := s.repo.UpdateReservation(ctx, merged); err != nil {
		return model.ReservationDetail{}, err
	}
	detail, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return model.ReservationDetail{}, err
	}
	s.publish("reservation_updated", detail.Reservation)
	return detail, nil
}

func (s *Service) DeleteReservation(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	existing, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if err := canDelete(existing.Reservation, actor); err != nil {
		return err
	}
	if err := s.repo.DeleteReservation(ctx, id); err != nil {
		return err
	}
	s.publish("reservation_deleted", existing.Reservation)
	return nil
}

// RecordEvent sinks a consumed audit event into the store.
func (s *Service) RecordEvent(ctx context.Context, event kafka.EventReservation) error {
	return s.repo.RecordEvent(ctx, event)
}

// publish is best-effort: the mutation has already committed, so a
// broker failure is logged and swallowed.
func (s *Service) publish(eventType string, rsv model.Reservation) {
	if s.events == nil {
		return
	}
	event := kafka.EventReservation{
		EventType:     eventType,
		ReservationID: rsv.ID.String(),
		UserID:        rsv.UserID.String(),
		BookID:        rsv.BookID.String(),
		Status:        string(rsv.Status),
		Timestamp:     time.Now().UTC(),
	}
	if err := s.events.Publish(event); err != nil {
		s.log.Warn("publish reservation event", zap.Error(err))
	}
}
