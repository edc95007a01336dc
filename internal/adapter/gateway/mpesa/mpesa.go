// Package mpesa adapts the Daraja STK-push API to the gateway.Initiator
// boundary. OAuth, payload shape and phone formatting all live here; the
// engine only ever sees "initiate -> correlation id".
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loanflow/internal/config"
	"loanflow/internal/domain/gateway"
)

const (
	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"
)

type Client struct {
	cfg  config.MpesaConfig
	http *http.Client
	now  func() time.Time
}

var _ gateway.Initiator = (*Client)(nil)

func NewClient(cfg config.MpesaConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		now:  time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type stkResponse struct {
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+tokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build token request: %v", gateway.ErrGateway, err)
	}
	auth := strings.TrimSpace(c.cfg.ConsumerKey) + ":" + strings.TrimSpace(c.cfg.ConsumerSecret)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", gateway.ErrGateway, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: auth failed (%d)", gateway.ErrGateway, resp.StatusCode)
	}
	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: malformed token response", gateway.ErrGateway)
	}
	return strings.TrimSpace(tok.AccessToken), nil
}

// Initiate pushes a payment prompt to the phone. The merchant reference is
// the repayment id; its tail becomes the provider account reference.
func (c *Client) Initiate(ctx context.Context, phone string, amount decimal.Decimal, merchantRef string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	timestamp := c.now().Format("20060102150405")
	shortCode := strings.TrimSpace(c.cfg.ShortCode)
	password := base64.StdEncoding.EncodeToString([]byte(shortCode + strings.TrimSpace(c.cfg.Passkey) + timestamp))
	formattedPhone := FormatPhone(phone, c.cfg.CountryCode)

	// Daraja takes whole currency units and rejects zero.
	amt := amount.IntPart()
	if amt <= 0 {
		amt = 1
	}

	payload := map[string]any{
		"BusinessShortCode": shortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amt,
		"PartyA":            formattedPhone,
		"PartyB":            shortCode,
		"PhoneNumber":       formattedPhone,
		"CallBackURL":       strings.TrimSpace(c.cfg.CallbackURL),
		"AccountReference":  accountRef(merchantRef),
		"TransactionDesc":   "LoanRepayment",
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal payload: %v", gateway.ErrGateway, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+stkPushPath, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: build push request: %v", gateway.ErrGateway, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: push request: %v", gateway.ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out stkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: malformed push response", gateway.ErrGateway)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.ResponseCode != "0" {
		msg := out.ErrorMessage
		if msg == "" {
			msg = out.ResponseDescription
		}
		if msg == "" {
			msg = "unknown provider error"
		}
		log.Printf("mpesa: push rejected: %s (code=%s http=%d)", msg, out.ResponseCode, resp.StatusCode)
		return "", fmt.Errorf("%w: %s", gateway.ErrGateway, msg)
	}
	if out.CheckoutRequestID == "" {
		return "", fmt.Errorf("%w: provider returned no checkout id", gateway.ErrGateway)
	}
	return out.CheckoutRequestID, nil
}

func accountRef(merchantRef string) string {
	if len(merchantRef) > 8 {
		merchantRef = merchantRef[len(merchantRef)-8:]
	}
	return "PAY" + merchantRef
}
