package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"eventra/internal/domain"
)

// SSLCommerzConfig holds store credentials and endpoints.
type SSLCommerzConfig struct {
	StoreID       string
	StorePass     string
	PaymentAPI    string
	ValidationAPI string
	Currency      string
	// BackendURL is the public base URL the gateway redirects the browser to.
	BackendURL string
}

type sslCommerz struct {
	cfg    SSLCommerzConfig
	client *http.Client
}

// NewSSLCommerz returns a PaymentGateway that talks to the SSLCommerz v4 API.
func NewSSLCommerz(cfg SSLCommerzConfig, client *http.Client) domain.PaymentGateway {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.Currency == "" {
		cfg.Currency = "BDT"
	}
	return &sslCommerz{cfg: cfg, client: client}
}

type initResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

func (g *sslCommerz) InitSession(ctx context.Context, req domain.GatewaySessionRequest) (*domain.GatewaySession, error) {
	amount := req.Amount.StringFixed(2)
	form := url.Values{}
	form.Set("store_id", g.cfg.StoreID)
	form.Set("store_passwd", g.cfg.StorePass)
	form.Set("total_amount", amount)
	form.Set("currency", g.cfg.Currency)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", g.callbackURL("success", req.TransactionID, amount))
	form.Set("fail_url", g.callbackURL("fail", req.TransactionID, amount))
	form.Set("cancel_url", g.callbackURL("cancel", req.TransactionID, amount))
	form.Set("ipn_url", strings.TrimSuffix(g.cfg.BackendURL, "/")+"/payment/ipn")
	form.Set("shipping_method", "NO")
	form.Set("product_name", req.ProductName)
	form.Set("product_category", "Service")
	form.Set("product_profile", "general")
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_phone", req.CustomerPhone)
	form.Set("cus_add1", "N/A")
	form.Set("cus_city", "Dhaka")
	form.Set("cus_country", "Bangladesh")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.PaymentAPI, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out initResponse
	if err := g.do(httpReq, &out); err != nil {
		return nil, err
	}
	if !strings.EqualFold(out.Status, "SUCCESS") || out.GatewayPageURL == "" {
		return nil, fmt.Errorf("gateway rejected session: %s", out.FailedReason)
	}
	return &domain.GatewaySession{RedirectURL: out.GatewayPageURL, SessionKey: out.SessionKey}, nil
}

type validationResponse struct {
	Status string `json:"status"`
	TranID string `json:"tran_id"`
	Amount string `json:"amount"`
}

func (g *sslCommerz) Validate(ctx context.Context, valID string) (*domain.GatewayValidation, error) {
	q := url.Values{}
	q.Set("val_id", valID)
	q.Set("store_id", g.cfg.StoreID)
	q.Set("store_passwd", g.cfg.StorePass)
	q.Set("format", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.ValidationAPI+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var out validationResponse
	if err := g.do(httpReq, &out); err != nil {
		return nil, err
	}
	status := strings.ToUpper(out.Status)
	return &domain.GatewayValidation{
		Valid:         status == "VALID" || status == "VALIDATED",
		Status:        status,
		TransactionID: out.TranID,
		Amount:        out.Amount,
	}, nil
}

func (g *sslCommerz) do(req *http.Request, dest any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("gateway returned status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

func (g *sslCommerz) callbackURL(outcome, txnID, amount string) string {
	q := url.Values{}
	q.Set("transactionId", txnID)
	q.Set("amount", amount)
	q.Set("status", outcome)
	return strings.TrimSuffix(g.cfg.BackendURL, "/") + "/payment/" + outcome + "?" + q.Encode()
}
