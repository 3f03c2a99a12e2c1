package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// The two-variant authorization policy. Handlers and the validator ask
// for capabilities instead of comparing role strings.

// CanReserve reports whether the role may create reservations.
func (r Role) CanReserve() bool { return r == RoleMember }

// CanModerate reports whether the role may act on any reservation,
// including changing its status.
func (r Role) CanModerate() bool { return r == RoleAdmin }

// CanManageCatalog reports whether the role may create, edit or delete books.
func (r Role) CanManageCatalog() bool { return r == RoleAdmin }

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Active reservations count toward the per-user quota. Rejected ones
// never do, even after later edits.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// MaxActiveReservations caps pending+approved reservations per member.
const MaxActiveReservations = 3

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) Owns(r Reservation) bool {
	return r.UserID == a.ID
}

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Tel          string    `json:"tel" db:"tel"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type Book struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	ISBN            string    `json:"ISBN" db:"isbn"`
	Publisher       string    `json:"publisher" db:"publisher"`
	AvailableAmount int       `json:"availableAmount" db:"available_amount"`
	CoverPicture    string    `json:"coverPicture" db:"cover_picture"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

type Reservation struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user" db:"user_id"`
	BookID     uuid.UUID `json:"book" db:"book_id"`
	BorrowDate Date      `json:"borrowDate" db:"borrow_date"`
	PickupDate Date      `json:"pickupDate" db:"pickup_date"`
	Status     Status    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type UserSummary struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
	Role  Role      `json:"role" db:"role"`
}

type BookSummary struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	ISBN            string    `json:"ISBN" db:"isbn"`
	Publisher       string    `json:"publisher" db:"publisher"`
	AvailableAmount int       `json:"availableAmount" db:"available_amount"`
}

// ReservationDetail is a reservation expanded with user and book
// summaries by the repository join. The outer fields shadow the raw
// user/book ids of the embedded Reservation in the JSON output.
type ReservationDetail struct {
	Reservation
	User UserSummary `json:"user" db:"user"`
	Book BookSummary `json:"book" db:"book"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Tel      string `json:"tel"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"omitempty,oneof=member admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateBookRequest struct {
	Title           string `json:"title" validate:"required"`
	Author          string `json:"author" validate:"required"`
	ISBN            string `json:"ISBN" validate:"required"`
	Publisher       string `json:"publisher"`
	AvailableAmount int    `json:"availableAmount" validate:"gte=0"`
	CoverPicture    string `json:"coverPicture"`
}

// UpdateBookRequest is a partial patch. Nil means the field is untouched.
type UpdateBookRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	ISBN            *string `json:"ISBN"`
	Publisher       *string `json:"publisher"`
	AvailableAmount *int    `json:"availableAmount" validate:"omitempty,gte=0"`
	CoverPicture    *string `json:"coverPicture"`
}

type CreateReservationRequest struct {
	Book       uuid.UUID `json:"book" validate:"required"`
	BorrowDate Date      `json:"borrowDate" validate:"required"`
	PickupDate Date      `json:"pickupDate" validate:"required"`
}

// UpdateReservationRequest is a partial patch; absent fields are not
// re-validated.
type UpdateReservationRequest struct {
	Book       *uuid.UUID `json:"book"`
	BorrowDate *Date      `json:"borrowDate"`
	PickupDate *Date      `json:"pickupDate"`
	Status     *Status    `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}
