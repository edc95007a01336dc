package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"loanflow/internal/domain/repayment"
	paymentUC "loanflow/internal/usecase/payment"
)

type PaymentHandler struct{ uc *paymentUC.Usecase }

func NewPaymentHandler(uc *paymentUC.Usecase) *PaymentHandler { return &PaymentHandler{uc: uc} }

type payReq struct {
	Method string `json:"payment_method" validate:"required,oneof=WALLET MPESA"`
}

type payFlexibleReq struct {
	Amount decimal.Decimal `json:"amount" validate:"required,dec2"`
	Method string          `json:"payment_method" validate:"required,oneof=WALLET MPESA"`
}

// Pay settles one installment. A wallet payment returns the PAID row; an
// MPESA payment returns 202 with the correlation id to poll on.
func (h *PaymentHandler) Pay(c echo.Context) error {
	var req payReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	res, err := h.uc.Pay(c.Request().Context(), c.Param("repayment_id"), repayment.Method(req.Method))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(payStatus(res), res)
}

func (h *PaymentHandler) PayFlexible(c echo.Context) error {
	var req payFlexibleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	res, err := h.uc.PayFlexible(c.Request().Context(), c.Param("loan_id"), req.Amount, repayment.Method(req.Method))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(payStatus(res), res)
}

func (h *PaymentHandler) GetInstallment(c echo.Context) error {
	dto, err := h.uc.GetInstallment(c.Request().Context(), c.Param("repayment_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func payStatus(res *paymentUC.PayResult) int {
	if res.Outcome == paymentUC.OutcomeAwaitingConfirmation {
		return http.StatusAccepted
	}
	return http.StatusOK
}
