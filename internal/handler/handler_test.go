package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/libtrack/book-reserve/internal/errs"
	"github.com/libtrack/book-reserve/internal/handler"
	"github.com/libtrack/book-reserve/internal/model"
	"github.com/libtrack/book-reserve/pkg/auth"

	service_mocks "github.com/libtrack/book-reserve/internal/handler/mocks"
)

func newRouter(t *testing.T) (*echo.Echo, *service_mocks.MockService) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	svc := service_mocks.NewMockService(c)
	log := zap.NewExample().Named("test")
	return handler.New(svc, log).NewRouter(), svc
}

func bearer(t *testing.T, actor model.Actor) string {
	t.Helper()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	claims.Profile.ID = actor.ID.String()
	claims.Profile.Name = "test user"
	claims.Profile.Role = string(actor.Role)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.JWTKey)
	require.NoError(t, err)
	return "Bearer " + token
}

func member() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleMember}
}

func admin() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
}

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return model.NewDate(d)
}

func detailFixture(actor model.Actor) model.ReservationDetail {
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rsv := model.Reservation{
		ID:         uuid.MustParse("7e7b2b6e-1111-4222-8333-944445555666"),
		UserID:     actor.ID,
		BookID:     uuid.MustParse("83575e12-7ce0-48ee-9931-51919ff3c9ee"),
		BorrowDate: model.NewDate(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)),
		PickupDate: model.NewDate(time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC)),
		Status:     model.StatusPending,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	return model.ReservationDetail{
		Reservation: rsv,
		User: model.UserSummary{
			ID:    actor.ID,
			Name:  "Reader One",
			Email: "reader@example.com",
			Role:  model.RoleMember,
		},
		Book: model.BookSummary{
			ID:              rsv.BookID,
			Title:           "The Go Programming Language",
			Author:          "Donovan, Kernighan",
			ISBN:            "978-0134190440",
			Publisher:       "Addison-Wesley",
			AvailableAmount: 3,
		},
	}
}

func TestHandler_GetReservations(t *testing.T) {
	t.Parallel()

	actor := member()
	items := []model.ReservationDetail{detailFixture(actor)}
	data, err := json.Marshal(items)
	require.NoError(t, err)

	tests := []struct {
		name         string
		actor        model.Actor
		mockBehavior func(r *service_mocks.MockService, actor model.Actor)
		expectedCode int
		expectedBody string
	}{
		{
			name:  "ok member sees own",
			actor: actor,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					ListReservations(gomock.Any(), actor).
					Return(items, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"success":true,"count":1,"data":` + string(data) + `}`,
		},
		{
			name:  "ok admin empty list",
			actor: admin(),
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					ListReservations(gomock.Any(), actor).
					Return([]model.ReservationDetail{}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"success":true,"count":0,"data":[]}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc, tt.actor)

			r := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", http.NoBody)
			r.Header.Set(echo.HeaderAuthorization, bearer(t, tt.actor))
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetReservation(t *testing.T) {
	t.Parallel()

	actor := member()
	item := detailFixture(actor)
	data, err := json.Marshal(item)
	require.NoError(t, err)

	tests := []struct {
		name         string
		id           string
		mockBehavior func(r *service_mocks.MockService)
		expectedCode int
		expectedBody string
	}{
		{
			name: "ok",
			id:   item.ID.String(),
			mockBehavior: func(r *service_mocks.MockService) {
				r.EXPECT().
					GetReservation(gomock.Any(), item.ID, actor).
					Return(item, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"success":true,"data":` + string(data) + `}`,
		},
		{
			name:         "err. malformed id",
			id:           "not-an-id",
			mockBehavior: func(r *service_mocks.MockService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"success":false,"error":"Invalid reservation id"}`,
		},
		{
			name: "err. not found",
			id:   uuid.New().String(),
			mockBehavior: func(r *service_mocks.MockService) {
				r.EXPECT().
					GetReservation(gomock.Any(), gomock.Any(), actor).
					Return(model.ReservationDetail{}, errs.ErrReservationNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: `{"success":false,"error":"Reservation not found"}`,
		},
		{
			name: "err. not owner",
			id:   uuid.New().String(),
			mockBehavior: func(r *service_mocks.MockService) {
				r.EXPECT().
					GetReservation(gomock.Any(), gomock.Any(), actor).
					Return(model.ReservationDetail{}, errs.ErrViewOther)
			},
			expectedCode: http.StatusForbidden,
			expectedBody: `{"success":false,"error":"Not authorized to view this reservation"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/"+tt.id, http.NoBody)
			r.Header.Set(echo.HeaderAuthorization, bearer(t, actor))
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CreateReservation(t *testing.T) {
	t.Parallel()

	actor := member()
	bookID := uuid.MustParse("83575e12-7ce0-48ee-9931-51919ff3c9ee")
	body := `{"book":"` + bookID.String() + `","borrowDate":"2030-01-02","pickupDate":"2030-01-09"}`

	req := model.CreateReservationRequest{
		Book:       bookID,
		BorrowDate: date(t, "2030-01-02"),
		PickupDate: date(t, "2030-01-09"),
	}
	created := model.Reservation{
		ID:         uuid.MustParse("7e7b2b6e-1111-4222-8333-944445555666"),
		UserID:     actor.ID,
		BookID:     bookID,
		BorrowDate: req.BorrowDate,
		PickupDate: req.PickupDate,
		Status:     model.StatusPending,
		CreatedAt:  time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	createdData, err := json.Marshal(created)
	require.NoError(t, err)

	tests := []struct {
		name         string
		actor        model.Actor
		body         string
		auth         bool
		mockBehavior func(r *service_mocks.MockService, actor model.Actor)
		expectedCode int
		expectedBody string
	}{
		{
			name:  "ok pending regardless of client status",
			actor: actor,
			auth:  true,
			body:  body,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					CreateReservation(gomock.Any(), req, actor).
					Return(created, nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: `{"success":true,"data":` + string(createdData) + `}`,
		},
		{
			name:  "err. quota exceeded",
			actor: actor,
			auth:  true,
			body:  body,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					CreateReservation(gomock.Any(), req, actor).
					Return(model.Reservation{}, errs.ErrQuotaExceeded)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"success":false,"error":"Reservation limit reached (max 3 active reservations)"}`,
		},
		{
			name:  "err. admin cannot create",
			actor: admin(),
			auth:  true,
			body:  body,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					CreateReservation(gomock.Any(), req, actor).
					Return(model.Reservation{}, errs.ErrOnlyMembers)
			},
			expectedCode: http.StatusForbidden,
			expectedBody: `{"success":false,"error":"Only members can create reservations"}`,
		},
		{
			name:  "err. book missing maps to bad request",
			actor: actor,
			auth:  true,
			body:  body,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					CreateReservation(gomock.Any(), req, actor).
					Return(model.Reservation{}, errs.ErrBookNotFound)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"success":false,"error":"Book not found"}`,
		},
		{
			name:  "err. past borrow date",
			actor: actor,
			auth:  true,
			body:  body,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					CreateReservation(gomock.Any(), req, actor).
					Return(model.Reservation{}, errs.ErrBorrowDatePast)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"success":false,"error":"Reservation date cannot be before today"}`,
		},
		{
			name:         "err. no token",
			actor:        actor,
			auth:         false,
			body:         body,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {},
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"success":false,"error":"No Authorization Header"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc, tt.actor)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.auth {
				r.Header.Set(echo.HeaderAuthorization, bearer(t, tt.actor))
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_UpdateReservation(t *testing.T) {
	t.Parallel()

	owner := member()
	moderator := admin()
	item := detailFixture(owner)
	item.Status = model.StatusApproved
	data, err := json.Marshal(item)
	require.NoError(t, err)

	approved := model.StatusApproved
	statusPatch := model.UpdateReservationRequest{Status: &approved}

	tests := []struct {
		name         string
		actor        model.Actor
		body         string
		mockBehavior func(r *service_mocks.MockService, actor model.Actor)
		expectedCode int
		expectedBody string
	}{
		{
			name:  "ok admin approves",
			actor: moderator,
			body:  `{"status":"approved"}`,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					UpdateReservation(gomock.Any(), item.ID, statusPatch, actor).
					Return(item, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"success":true,"data":` + string(data) + `}`,
		},
		{
			name:  "err. member sets status",
			actor: owner,
			body:  `{"status":"approved"}`,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					UpdateReservation(gomock.Any(), item.ID, statusPatch, actor).
					Return(model.ReservationDetail{}, errs.ErrStatusChange)
			},
			expectedCode: http.StatusForbidden,
			expectedBody: `{"success":false,"error":"Members cannot change reservation status"}`,
		},
		{
			name:         "err. bad status value",
			actor:        moderator,
			body:         `{"status":"done"}`,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:  "err. pickup before borrow",
			actor: owner,
			body:  `{"pickupDate":"2030-01-01"}`,
			mockBehavior: func(r *service_mocks.MockService, actor model.Actor) {
				r.EXPECT().
					UpdateReservation(gomock.Any(), item.ID, gomock.Any(), actor).
					Return(model.ReservationDetail{}, errs.ErrDateRange)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"success":false,"error":"Pickup date must not be earlier than reservation date"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc, tt.actor)

			r := httptest.NewRequest(http.MethodPut, "/api/v1/reservations/"+item.ID.String(), strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			r.Header.Set(echo.HeaderAuthorization, bearer(t, tt.actor))
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != "" {
				require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_DeleteReservation(t *testing.T) {
	t.Parallel()

	actor := member()
	id := uuid.New()

	tests := []struct {
		name         string
		mockBehavior func(r *service_mocks.MockService)
		expectedCode int
		expectedBody string
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockService) {
				r.EXPECT().
					DeleteReservation(gomock.Any(), id, actor).
					Return(nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"success":true,"data":{}}`,
		},
		{
			name: "err. not owner",
			mockBehavior: func(r *service_mocks.MockService) {
				r.EXPECT().
					DeleteReservation(gomock.Any(), id, actor).
					Return(errs.ErrDeleteOther)
			},
			expectedCode: http.StatusForbidden,
			expectedBody: `{"success":false,"error":"Not authorized to delete this reservation"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc)

			r := httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/"+id.String(), http.NoBody)
			r.Header.Set(echo.HeaderAuthorization, bearer(t, actor))
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CreateBook(t *testing.T) {
	t.Parallel()

	body := `{"title":"Clean Architecture","author":"Robert Martin","ISBN":"978-0134494166","publisher":"Prentice Hall","availableAmount":2}`

	t.Run("ok admin", func(t *testing.T) {
		t.Parallel()
		e, svc := newRouter(t)
		book := model.Book{
			ID:              uuid.New(),
			Title:           "Clean Architecture",
			Author:          "Robert Martin",
			ISBN:            "978-0134494166",
			Publisher:       "Prentice Hall",
			AvailableAmount: 2,
		}
		svc.EXPECT().
			CreateBook(gomock.Any(), model.CreateBookRequest{
				Title:           "Clean Architecture",
				Author:          "Robert Martin",
				ISBN:            "978-0134494166",
				Publisher:       "Prentice Hall",
				AvailableAmount: 2,
			}).
			Return(book, nil)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		r.Header.Set(echo.HeaderAuthorization, bearer(t, admin()))
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("err. member forbidden", func(t *testing.T) {
		t.Parallel()
		e, _ := newRouter(t)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		r.Header.Set(echo.HeaderAuthorization, bearer(t, member()))
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusForbidden, w.Code)
		require.Equal(t, `{"success":false,"error":"Admin access required"}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("err. duplicate isbn", func(t *testing.T) {
		t.Parallel()
		e, svc := newRouter(t)
		svc.EXPECT().
			CreateBook(gomock.Any(), gomock.Any()).
			Return(model.Book{}, errs.ErrDuplicateISBN)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		r.Header.Set(echo.HeaderAuthorization, bearer(t, admin()))
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandler_GetBooks_Public(t *testing.T) {
	t.Parallel()

	e, svc := newRouter(t)
	svc.EXPECT().
		ListBooks(gomock.Any()).
		Return([]model.Book{}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/books", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"success":true,"count":0,"data":[]}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()

	t.Run("err. invalid credentials", func(t *testing.T) {
		t.Parallel()
		e, svc := newRouter(t)
		svc.EXPECT().
			Login(gomock.Any(), model.LoginRequest{Email: "reader@example.com", Password: "nope"}).
			Return(model.User{}, "", errs.ErrInvalidCredentials)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"reader@example.com","password":"nope"}`))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, `{"success":false,"error":"Invalid credentials"}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("ok issues token", func(t *testing.T) {
		t.Parallel()
		e, svc := newRouter(t)
		user := model.User{ID: uuid.New(), Name: "Reader One", Email: "reader@example.com", Role: model.RoleMember}
		svc.EXPECT().
			Login(gomock.Any(), model.LoginRequest{Email: "reader@example.com", Password: "secret1"}).
			Return(user, "signed-token", nil)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"reader@example.com","password":"secret1"}`))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"token":"signed-token"`)
	})
}
