package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/libtrack/book-reserve/internal/errs"
	"github.com/libtrack/book-reserve/internal/model"
	"github.com/libtrack/book-reserve/pkg/auth"
	mw "github.com/libtrack/book-reserve/pkg/middleware"
	"github.com/libtrack/book-reserve/pkg/validate"
)

type Handler struct {
	svc Service
	log *zap.Logger
}

func New(svc Service, log *zap.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.HTTPErrorHandler = h.errorHandler

	base := e.Group("", mw.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(mw.RequestLoggerConfig()),
		middleware.RequestID(),
		mw.NewRateLimiter(apiRPS),
	)

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", h.Me, mw.JwtAuthentication)

	api.GET("/books", h.GetBooks)
	api.GET("/books/:id", h.GetBook)
	catalog := api.Group("/books", mw.JwtAuthentication, h.adminOnly)
	catalog.POST("", h.CreateBook)
	catalog.PUT("/:id", h.UpdateBook)
	catalog.DELETE("/:id", h.DeleteBook)

	rsv := api.Group("/reservations", mw.JwtAuthentication)
	rsv.GET("", h.GetReservations)
	rsv.GET("/:id", h.GetReservation)
	rsv.POST("", h.CreateReservation)
	rsv.PUT("/:id", h.UpdateReservation)
	rsv.DELETE("/:id", h.DeleteReservation)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// response is the uniform API envelope: {success, count?, data?} on
// success, {success:false, error} on failure.
type response struct {
	Success bool        `json:"success"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprintf("%v", he.Message)
	}
	if err := c.JSON(code, response{Success: false, Error: msg}); err != nil {
		h.log.Error("write error response", zap.Error(err))
	}
}

// httpError translates a domain error into its contractual status code.
func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
}

func actorFromContext(c echo.Context) (model.Actor, error) {
	ident, err := auth.FromContext(c.Request().Context())
	if err != nil {
		return model.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	id, err := uuid.Parse(ident.ID)
	if err != nil {
		return model.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, errs.ErrInvalidUserID.Error())
	}
	return model.Actor{ID: id, Role: model.Role(ident.Role)}, nil
}

func (h *Handler) adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := actorFromContext(c)
		if err != nil {
			return err
		}
		if !actor.Role.CanManageCatalog() {
			return httpError(errs.ErrAdminOnly)
		}
		return next(c)
	}
}
