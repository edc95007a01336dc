package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	loanDomain "loanflow/internal/domain/loan"
	loanUC "loanflow/internal/usecase/loan"
)

type LoanHandler struct{ uc *loanUC.Usecase }

func NewLoanHandler(uc *loanUC.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type applyLoanReq struct {
	BorrowerID string          `json:"borrower_id" validate:"required,hex32"`
	Amount     decimal.Decimal `json:"amount" validate:"required,dec2"`
	TermMonths int             `json:"term_months" validate:"required,gte=1"`
	Purpose    string          `json:"purpose" validate:"required"`
}

type reviewReq struct {
	ReviewerID string `json:"reviewer_id" validate:"required"`
	Notes      string `json:"notes"`
	Reason     string `json:"reason"`
}

func (h *LoanHandler) Apply(c echo.Context) error {
	var req applyLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	dto, err := h.uc.Apply(c.Request().Context(), loanUC.ApplyInput{
		BorrowerID: req.BorrowerID,
		Amount:     req.Amount,
		TermMonths: req.TermMonths,
		Purpose:    loanDomain.Purpose(req.Purpose),
	})
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) List(c echo.Context) error {
	limit, offset := pageParams(c)
	dtos, err := h.uc.List(c.Request().Context(), limit, offset)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *LoanHandler) ListByBorrower(c echo.Context) error {
	limit, offset := pageParams(c)
	dtos, err := h.uc.ListByBorrower(c.Request().Context(), c.Param("borrower_id"), limit, offset)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *LoanHandler) Summary(c echo.Context) error {
	dto, err := h.uc.Summary(c.Request().Context(), c.Param("borrower_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Approve(c echo.Context) error {
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	dto, err := h.uc.Approve(c.Request().Context(), loanUC.ApproveInput{
		LoanID:     c.Param("loan_id"),
		ReviewerID: req.ReviewerID,
		Notes:      req.Notes,
	})
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Reject(c echo.Context) error {
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	dto, err := h.uc.Reject(c.Request().Context(), loanUC.RejectInput{
		LoanID:     c.Param("loan_id"),
		ReviewerID: req.ReviewerID,
		Reason:     req.Reason,
	})
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Disburse(c echo.Context) error {
	dto, err := h.uc.Disburse(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
