package errs

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidReservationID = errors.New("Invalid reservation id")
	ErrInvalidBookID        = errors.New("Invalid book id")
	ErrInvalidUserID        = errors.New("Invalid user id")

	ErrInvalidBorrowDate = errors.New("Invalid reservation (borrow) date")
	ErrInvalidPickupDate = errors.New("Invalid pickup date")
	ErrBorrowDatePast    = errors.New("Reservation date cannot be before today")
	ErrPickupDatePast    = errors.New("Pickup date cannot be before today")
	ErrDateRange         = errors.New("Pickup date must not be earlier than reservation date")
	ErrStatusValue       = errors.New("Status can only be set to approved or rejected")
	ErrQuotaExceeded     = errors.New("Reservation limit reached (max 3 active reservations)")

	ErrOnlyMembers  = errors.New("Only members can create reservations")
	ErrStatusChange = errors.New("Members cannot change reservation status")
	ErrViewOther    = errors.New("Not authorized to view this reservation")
	ErrEditOther    = errors.New("Not authorized to edit this reservation")
	ErrDeleteOther  = errors.New("Not authorized to delete this reservation")
	ErrAdminOnly    = errors.New("Admin access required")

	ErrReservationNotFound = errors.New("Reservation not found")
	ErrBookNotFound        = errors.New("Book not found")
	ErrUserNotFound        = errors.New("User not found")

	ErrDuplicateISBN      = errors.New("A book with this ISBN already exists")
	ErrDuplicateEmail     = errors.New("A user with this email already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)

var badRequest = []error{
	ErrInvalidReservationID, ErrInvalidBookID, ErrInvalidUserID,
	ErrInvalidBorrowDate, ErrInvalidPickupDate,
	ErrBorrowDatePast, ErrPickupDatePast, ErrDateRange,
	ErrStatusValue, ErrQuotaExceeded,
}

var forbidden = []error{
	ErrOnlyMembers, ErrStatusChange,
	ErrViewOther, ErrEditOther, ErrDeleteOther, ErrAdminOnly,
}

// HTTPStatus maps a domain error to the status code the API contract
// promises: 400 validation, 401 credentials, 403 authorization,
// 404 missing, 409 conflict, 500 otherwise.
func HTTPStatus(err error) int {
	switch {
	case isAny(err, badRequest):
		return http.StatusBadRequest
	case isAny(err, forbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrReservationNotFound),
		errors.Is(err, ErrBookNotFound),
		errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateISBN), errors.Is(err, ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
