package service

import (
	"time"

	"github.com/libtrack/book-reserve/internal/errs"
	"github.com/libtrack/book-reserve/internal/model"
)

// todayDate is computed once per request; all date policy compares at
// day granularity, so a borrow/pickup date equal to today is valid.
func todayDate() model.Date {
	return model.NewDate(time.Now())
}

// newReservation checks the create invariants in the order the API
// promises them (role, quota, dates, book) and returns the normalized
// reservation: owned by the actor, status forced to pending no matter
// what the client sent.
func newReservation(req model.CreateReservationRequest, actor model.Actor, activeCount int, bookExists bool, today model.Date) (model.Reservation, error) {
	if !actor.Role.CanReserve() {
		return model.Reservation{}, errs.ErrOnlyMembers
	}
	if activeCount >= model.MaxActiveReservations {
		return model.Reservation{}, errs.ErrQuotaExceeded
	}
	if req.BorrowDate.IsZero() {
		return model.Reservation{}, errs.ErrInvalidBorrowDate
	}
	if req.PickupDate.IsZero() {
		return model.Reservation{}, errs.ErrInvalidPickupDate
	}
	if req.BorrowDate.Before(today) {
		return model.Reservation{}, errs.ErrBorrowDatePast
	}
	if req.PickupDate.Before(today) {
		return model.Reservation{}, errs.ErrPickupDatePast
	}
	if req.PickupDate.Before(req.BorrowDate) {
		return model.Reservation{}, errs.ErrDateRange
	}
	if !bookExists {
		return model.Reservation{}, errs.ErrBookNotFound
	}
	return model.Reservation{
		UserID:     actor.ID,
		BookID:     req.Book,
		BorrowDate: req.BorrowDate,
		PickupDate: req.PickupDate,
		Status:     model.StatusPending,
	}, nil
}

// mergeReservation applies a partial update. Members may only touch
// their own reservations and never the status; fields absent from the
// patch are left as they are and not re-validated, except that the
// borrow/pickup pair is cross-checked whenever either side changes.
func mergeReservation(existing model.Reservation, patch model.UpdateReservationRequest, actor model.Actor, today model.Date) (model.Reservation, error) {
	if !actor.Role.CanModerate() {
		if !actor.Owns(existing) {
			return model.Reservation{}, errs.ErrEditOther
		}
		if patch.Status != nil {
			return model.Reservation{}, errs.ErrStatusChange
		}
	}

	merged := existing
	if patch.BorrowDate != nil {
		if patch.BorrowDate.Before(today) {
			return model.Reservation{}, errs.ErrBorrowDatePast
		}
		merged.BorrowDate = *patch.BorrowDate
	}
	if patch.PickupDate != nil {
		if patch.PickupDate.Before(today) {
			return model.Reservation{}, errs.ErrPickupDatePast
		}
		merged.PickupDate = *patch.PickupDate
	}
	if patch.BorrowDate != nil || patch.PickupDate != nil {
		if merged.PickupDate.Before(merged.BorrowDate) {
			return model.Reservation{}, errs.ErrDateRange
		}
	}
	if patch.Status != nil {
		// an admin can resolve a reservation, not reset it
		if *patch.Status == model.StatusPending {
			return model.Reservation{}, errs.ErrStatusValue
		}
		merged.Status = *patch.Status
	}
	if patch.Book != nil {
		merged.BookID = *patch.Book
	}
	return merged, nil
}

func canView(existing model.Reservation, actor model.Actor) error {
	if !actor.Role.CanModerate() && !actor.Owns(existing) {
		return errs.ErrViewOther
	}
	return nil
}

func canDelete(existing model.Reservation, actor model.Actor) error {
	if !actor.Role.CanModerate() && !actor.Owns(existing) {
		return errs.ErrDeleteOther
	}
	return nil
}
