package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	loanDomain "loanflow/internal/domain/loan"
	"loanflow/internal/domain/repayment"
	paymentUC "loanflow/internal/usecase/payment"
)

// CallbackHandler receives the provider's asynchronous confirmation webhook.
// The route is public — the provider cannot authenticate — so it leaks
// nothing: stray or unmatched callbacks are logged and acknowledged.
type CallbackHandler struct{ uc *paymentUC.Usecase }

func NewCallbackHandler(uc *paymentUC.Usecase) *CallbackHandler { return &CallbackHandler{uc: uc} }

// Daraja STK callback envelope. Only the two fields the engine needs are
// modeled; the rest of the payload is ignored.
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

func (h *CallbackHandler) MpesaCallback(c echo.Context) error {
	var env stkCallbackEnvelope
	if err := c.Bind(&env); err != nil {
		c.Logger().Warnf("mpesa callback: unparseable payload: %v", err)
		return c.JSON(http.StatusOK, map[string]string{"result": "ignored"})
	}

	cb := env.Body.StkCallback
	if cb.ResultCode != 0 {
		c.Logger().Infof("mpesa callback: push failed/cancelled: code=%d desc=%q checkout=%s",
			cb.ResultCode, cb.ResultDesc, cb.CheckoutRequestID)
		return c.JSON(http.StatusOK, map[string]string{"result": "acknowledged"})
	}

	if err := h.uc.Confirm(c.Request().Context(), cb.CheckoutRequestID); err != nil {
		// Providers deliver stray callbacks; an unmatched correlation id, or
		// one whose loan already left a payable state, is dropped, not
		// escalated.
		if errors.Is(err, repayment.ErrUnknownCorrelation) || errors.Is(err, loanDomain.ErrInvalidTransition) {
			c.Logger().Warnf("mpesa callback: unmatchable checkout id %s, dropping", cb.CheckoutRequestID)
			return c.JSON(http.StatusOK, map[string]string{"result": "dropped"})
		}
		c.Logger().Errorf("mpesa callback: confirm %s: %v", cb.CheckoutRequestID, err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "confirmation failed"})
	}
	return c.JSON(http.StatusOK, map[string]string{"result": "processed"})
}
