package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/libtrack/book-reserve/internal/errs"
	"github.com/libtrack/book-reserve/internal/model"
)

func bookID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, httpError(errs.ErrInvalidBookID)
	}
	return id, nil
}

func (h *Handler) GetBooks(c echo.Context) error {
	books, err := h.svc.ListBooks(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	count := len(books)
	return c.JSON(http.StatusOK, response{Success: true, Count: &count, Data: books})
}

func (h *Handler) GetBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, err := h.svc.GetBook(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: book})
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	book, err := h.svc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, response{Success: true, Data: book})
}

func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var patch model.UpdateBookRequest
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(patch); err != nil {
		return err
	}
	book, err := h.svc.UpdateBook(c.Request().Context(), id, patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: book})
}

func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteBook(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: map[string]interface{}{}})
}
