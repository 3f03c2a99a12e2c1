package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/libtrack/book-reserve/internal/model"
)

type authResponse struct {
	Success bool       `json:"success"`
	User    model.User `json:"user"`
	Token   string     `json:"token"`
}

func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	user, token, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, authResponse{Success: true, User: user, Token: token})
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	user, token, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, authResponse{Success: true, User: user, Token: token})
}

func (h *Handler) Me(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), actor.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: user})
}
