package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"loanflow/internal/amortize"
	"loanflow/internal/domain/borrower"
	"loanflow/internal/domain/gateway"
	loanDomain "loanflow/internal/domain/loan"
	"loanflow/internal/domain/repayment"
	loanUC "loanflow/internal/usecase/loan"
)

// writeDomainErr maps the engine's error taxonomy onto HTTP statuses. Every
// business-rule violation surfaces with its own message; only genuinely
// unexpected failures collapse into a 500.
func writeDomainErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, loanDomain.ErrNotFound),
		errors.Is(err, repayment.ErrNotFound),
		errors.Is(err, borrower.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, loanDomain.ErrInvalidTransition),
		errors.Is(err, repayment.ErrAlreadyPaid):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, loanUC.ErrValidation),
		errors.Is(err, loanDomain.ErrTooManyActiveLoans),
		errors.Is(err, repayment.ErrInvalidAmount),
		errors.Is(err, borrower.ErrMissingCreditScore),
		errors.Is(err, borrower.ErrMissingPhone),
		errors.Is(err, amortize.ErrInvalidTerm):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, gateway.ErrGateway):
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// pageParams parses limit/offset query params with sane defaults.
func pageParams(c echo.Context) (limit, offset int) {
	limit, offset = 20, 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
