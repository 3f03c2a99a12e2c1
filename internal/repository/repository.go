package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/libtrack/book-reserve/internal/errs"
	"github.com/libtrack/book-reserve/internal/model"
	"github.com/libtrack/book-reserve/pkg/kafka"
)

type Repository interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (model.Book, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error

	ListReservations(ctx context.Context, userID *uuid.UUID) ([]model.ReservationDetail, error)
	GetReservation(ctx context.Context, id uuid.UUID) (model.ReservationDetail, error)
	CountActiveReservations(ctx context.Context, userID uuid.UUID) (int, error)
	CreateReservation(ctx context.Context, rsv model.Reservation) (model.Reservation, error)
	UpdateReservation(ctx context.Context, rsv model.Reservation) error
	DeleteReservation(ctx context.Context, id uuid.UUID) error

	RecordEvent(ctx context.Context, event kafka.EventReservation) error
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	usersTableName        = `users`
	booksTableName        = `books`
	reservationsTableName = `reservations`
	eventsTableName       = `reservation_events`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *repository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	now := time.Now().UTC()
	user.ID = uuid.New()
	user.CreatedAt, user.UpdatedAt = now, now

	q, args, err := qb.Insert(usersTableName).
		Columns("id", "name", "email", "tel", "role", "password_hash", "created_at", "updated_at").
		Values(user.ID, user.Name, user.Email, user.Tel, user.Role, user.PasswordHash, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, errs.ErrDuplicateEmail
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *repository) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	q, args, err := qb.Select("id", "name", "email", "tel", "role", "password_hash", "created_at", "updated_at").
		From(usersTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	q, args, err := qb.Select("id", "name", "email", "tel", "role", "password_hash", "created_at", "updated_at").
		From(usersTableName).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

var bookColumns = []string{"id", "title", "author", "isbn", "publisher", "available_amount", "cover_picture", "created_at", "updated_at"}

func (r *repository) ListBooks(ctx context.Context) ([]model.Book, error) {
	q, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, err
	}
	books := make([]model.Book, 0)
	if err := r.db.SelectContext(ctx, &books, q, args...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) GetBook(ctx context.Context, id uuid.UUID) (model.Book, error) {
	q, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	now := time.Now().UTC()
	book.ID = uuid.New()
	book.CreatedAt, book.UpdatedAt = now, now

	q, args, err := qb.Insert(booksTableName).
		Columns(bookColumns...).
		Values(book.ID, book.Title, book.Author, book.ISBN, book.Publisher,
			book.AvailableAmount, book.CoverPicture, book.CreatedAt, book.UpdatedAt).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrDuplicateISBN
		}
		r.log.Error("CreateBook", zap.String("q", q), zap.Any("args", args))
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	book.UpdatedAt = time.Now().UTC()

	q, args, err := qb.Update(booksTableName).
		Set("title", book.Title).
		Set("author", book.Author).
		Set("isbn", book.ISBN).
		Set("publisher", book.Publisher).
		Set("available_amount", book.AvailableAmount).
		Set("cover_picture", book.CoverPicture).
		Set("updated_at", book.UpdatedAt).
		Where(sq.Eq{"id": book.ID}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrDuplicateISBN
		}
		return model.Book{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Book{}, errs.ErrBookNotFound
	}
	return book, nil
}

func (r *repository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	q, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

var reservationDetailColumns = []string{
	"r.id", "r.user_id", "r.book_id", "r.borrow_date", "r.pickup_date",
	"r.status", "r.created_at", "r.updated_at",
	`u.id as "user.id"`, `u.name as "user.name"`, `u.email as "user.email"`, `u.role as "user.role"`,
	`b.id as "book.id"`, `b.title as "book.title"`, `b.author as "book.author"`,
	`b.isbn as "book.isbn"`, `b.publisher as "book.publisher"`, `b.available_amount as "book.available_amount"`,
}

func (r *repository) detailQuery() sq.SelectBuilder {
	return qb.Select(reservationDetailColumns...).
		From(reservationsTableName + " r").
		Join(usersTableName + " u on u.id = r.user_id").
		Join(booksTableName + " b on b.id = r.book_id")
}

// ListReservations returns expanded reservations; a nil userID means all
// of them (administrator listing).
func (r *repository) ListReservations(ctx context.Context, userID *uuid.UUID) ([]model.ReservationDetail, error) {
	q := r.detailQuery()
	if userID != nil {
		q = q.Where(sq.Eq{"r.user_id": *userID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListReservations", zap.String("query", query), zap.Any("args", args))

	items := make([]model.ReservationDetail, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) GetReservation(ctx context.Context, id uuid.UUID) (model.ReservationDetail, error) {
	query, args, err := r.detailQuery().
		Where(sq.Eq{"r.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.ReservationDetail{}, err
	}
	var item model.ReservationDetail
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ReservationDetail{}, errs.ErrReservationNotFound
		}
		return model.ReservationDetail{}, err
	}
	return item, nil
}

// CountActiveReservations runs outside any transaction with the insert
// that follows it; concurrent creates can both pass the quota check.
func (r *repository) CountActiveReservations(ctx context.Context, userID uuid.UUID) (int, error) {
	q := `
	select count(*) from reservations
	where user_id = $1 and status in ('pending', 'approved')
`
	var count int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreateReservation(ctx context.Context, rsv model.Reservation) (model.Reservation, error) {
	now := time.Now().UTC()
	rsv.ID = uuid.New()
	rsv.CreatedAt, rsv.UpdatedAt = now, now

	q, args, err := qb.Insert(reservationsTableName).
		Columns("id", "user_id", "book_id", "borrow_date", "pickup_date", "status", "created_at", "updated_at").
		Values(rsv.ID, rsv.UserID, rsv.BookID, rsv.BorrowDate, rsv.PickupDate, rsv.Status, rsv.CreatedAt, rsv.UpdatedAt).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		r.log.Error("CreateReservation", zap.String("q", q), zap.Any("args", args))
		return model.Reservation{}, err
	}
	return rsv, nil
}

func (r *repository) UpdateReservation(ctx context.Context, rsv model.Reservation) error {
	q, args, err := qb.Update(reservationsTableName).
		Set("book_id", rsv.BookID).
		Set("borrow_date", rsv.BorrowDate).
		Set("pickup_date", rsv.PickupDate).
		Set("status", rsv.Status).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": rsv.ID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrReservationNotFound
	}
	return nil
}

func (r *repository) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	q, args, err := qb.Delete(reservationsTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrReservationNotFound
	}
	return nil
}

func (r *repository) RecordEvent(ctx context.Context, event kafka.EventReservation) error {
	q, args, err := qb.Insert(eventsTableName).
		Columns("event_type", "reservation_id", "user_id", "book_id", "status", "ts").
		Values(event.EventType, event.ReservationID, event.UserID, event.BookID, event.Status, event.Timestamp).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}
