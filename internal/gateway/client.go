package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/paypass/paypass-backend/internal/model"
)

// Result is the gateway's fine-grained outcome block.
type Result struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// CheckoutParams carries everything the checkout-creation endpoint needs.
// Amount must already be in the gateway's canonical decimal form.
type CheckoutParams struct {
	Amount                string
	Currency              string
	PaymentBrand          string
	MerchantTransactionID string
	Customer              model.Customer
	Billing               model.BillingAddress
}

// CheckoutResult is the parsed checkout-creation response plus the raw body.
type CheckoutResult struct {
	ID     string `json:"id"`
	Result Result `json:"result"`
	Raw    json.RawMessage
}

// StatusResult is the parsed payment-status response plus the raw body.
type StatusResult struct {
	ID           string `json:"id"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	PaymentBrand string `json:"paymentBrand"`
	Result       Result `json:"result"`
	Raw          json.RawMessage
}

// Client defines the outbound gateway operations.
type Client interface {
	// CreateCheckout registers a new checkout with the gateway and returns
	// its opaque identifier.
	CreateCheckout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error)
	// PaymentStatus fetches the authoritative outcome of a checkout using
	// the gateway-supplied resource path.
	PaymentStatus(ctx context.Context, resourcePath string) (*StatusResult, error)
}

// HyperPay is the HTTP implementation of Client against a HyperPay-style
// gateway: form-encoded requests, bearer-token authorization, and the
// merchant entity id attached to every call.
type HyperPay struct {
	baseURL  string
	token    string
	entityID string
	client   *http.Client
}

// NewHyperPay creates a gateway client. The HTTP client's timeout bounds
// each outbound call.
func NewHyperPay(baseURL, token, entityID string, client *http.Client) *HyperPay {
	return &HyperPay{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		entityID: entityID,
		client:   client,
	}
}

func (g *HyperPay) CreateCheckout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error) {
	form := url.Values{}
	form.Set("entityId", g.entityID)
	form.Set("amount", params.Amount)
	form.Set("currency", params.Currency)
	form.Set("paymentType", "DB")
	if params.MerchantTransactionID != "" {
		form.Set("merchantTransactionId", params.MerchantTransactionID)
	}
	setIfPresent(form, "customer.email", params.Customer.Email)
	setIfPresent(form, "customer.givenName", params.Customer.GivenName)
	setIfPresent(form, "customer.surname", params.Customer.Surname)
	setIfPresent(form, "customer.mobile", params.Customer.Mobile)
	setIfPresent(form, "billing.street1", params.Billing.Street1)
	setIfPresent(form, "billing.city", params.Billing.City)
	setIfPresent(form, "billing.state", params.Billing.State)
	setIfPresent(form, "billing.country", params.Billing.Country)
	setIfPresent(form, "billing.postcode", params.Billing.Postcode)
	if strings.EqualFold(params.PaymentBrand, "MADA") {
		// MADA transactions require the 3-D Secure enrollment hint.
		form.Set("customParameters[3DS2_enrolled]", "true")
	}

	body, err := g.do(ctx, http.MethodPost, g.baseURL+"/v1/checkouts", strings.NewReader(form.Encode()), "checkout")
	if err != nil {
		return nil, err
	}

	var res CheckoutResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &GatewayError{StatusCode: http.StatusOK, Body: string(body)}
	}
	res.Raw = body
	return &res, nil
}

func (g *HyperPay) PaymentStatus(ctx context.Context, resourcePath string) (*StatusResult, error) {
	u := g.baseURL + resourcePath + "?entityId=" + url.QueryEscape(g.entityID)

	body, err := g.do(ctx, http.MethodGet, u, nil, "status")
	if err != nil {
		return nil, err
	}

	var res StatusResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &GatewayError{StatusCode: http.StatusOK, Body: string(body)}
	}
	res.Raw = body
	return &res, nil
}

// do executes one gateway call. A transport failure maps to NetworkError,
// a non-2xx response to GatewayError with the upstream status and body.
func (g *HyperPay) do(ctx context.Context, method, url string, body io.Reader, op string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func setIfPresent(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}
