package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/libtrack/book-reserve/internal/errs"
	"github.com/libtrack/book-reserve/internal/model"
)

func reservationID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, httpError(errs.ErrInvalidReservationID)
	}
	return id, nil
}

func (h *Handler) GetReservations(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListReservations(c.Request().Context(), actor)
	if err != nil {
		return httpError(err)
	}
	count := len(items)
	return c.JSON(http.StatusOK, response{Success: true, Count: &count, Data: items})
}

func (h *Handler) GetReservation(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := reservationID(c)
	if err != nil {
		return err
	}
	item, err := h.svc.GetReservation(c.Request().Context(), id, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: item})
}

func (h *Handler) CreateReservation(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	rsv, err := h.svc.CreateReservation(c.Request().Context(), req, actor)
	if err != nil {
		// a dangling book reference is bad input here, not a 404
		if errors.Is(err, errs.ErrBookNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, response{Success: true, Data: rsv})
}

func (h *Handler) UpdateReservation(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := reservationID(c)
	if err != nil {
		return err
	}
	var patch model.UpdateReservationRequest
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(patch); err != nil {
		return err
	}

	item, err := h.svc.UpdateReservation(c.Request().Context(), id, patch, actor)
	if err != nil {
		if errors.Is(err, errs.ErrBookNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: item})
}

func (h *Handler) DeleteReservation(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := reservationID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteReservation(c.Request().Context(), id, actor); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: map[string]interface{}{}})
}
