package handler // handler defines http handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// dbTimeout bounds every storage call made on behalf of a request.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail writes the {"error": msg} body used by every handler.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// dbFail logs an unexpected storage error and hides it from the client.
func dbFail(c echo.Context, op string, err error) error {
	c.Logger().Errorf("%s: %v", op, err)
	return fail(c, http.StatusInternalServerError, "db error")
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// Validator adapts go-playground/validator to echo.Validator so handlers can
// call c.Validate on bound request bodies.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate returns a *validationError describing the first failing field.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if errors.As(err, &fes) && len(fes) > 0 {
		return &validationError{msg: describe(fes[0])}
	}
	return &validationError{msg: err.Error()}
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be a positive number", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// bindValid binds the request body into req and validates it.  The error
// response has already been written when ok is false.
func bindValid(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, fail(c, http.StatusBadRequest, "invalid request body")
	}
	if t, is := req.(interface{ trim() }); is {
		t.trim()
	}
	if err := c.Validate(req); err != nil {
		var ve *validationError
		if errors.As(err, &ve) {
			return false, fail(c, http.StatusUnprocessableEntity, ve.msg)
		}
		return false, fail(c, http.StatusBadRequest, err.Error())
	}
	return true, nil
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Data         []*T `json:"data"`
	TotalCount   int  `json:"total_count"`
	HasMore      bool `json:"has_more"`
	Page         int  `json:"page"`
	ItemsPerPage int  `json:"items_per_page"`
}

const (
	defaultPerPage = 10
	maxPerPage     = 100
	// maxPage keeps (page-1)*perPage far from overflowing into a negative
	// OFFSET.
	maxPage = math.MaxInt32 / maxPerPage
)

// pagination reads ?page=&items_per_page=.  Page starts at 1 and may not
// exceed maxPage; the page size defaults to 10 and is capped at 100.
func pagination(c echo.Context) (page, perPage int, err error) {
	page, perPage = 1, defaultPerPage
	if s := c.QueryParam("page"); s != "" {
		if page, err = strconv.Atoi(s); err != nil || page < 1 || page > maxPage {
			return 0, 0, errors.New("invalid page")
		}
	}
	if s := c.QueryParam("items_per_page"); s != "" {
		if perPage, err = strconv.Atoi(s); err != nil || perPage < 1 {
			return 0, 0, errors.New("invalid items_per_page")
		}
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, nil
}

func newPage[T any](items []*T, total, page, perPage int) Page[T] {
	if items == nil {
		items = []*T{}
	}
	return Page[T]{
		Data:         items,
		TotalCount:   total,
		HasMore:      page*perPage < total,
		Page:         page,
		ItemsPerPage: perPage,
	}
}

// trimPtr trims a optional string in place.
func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
