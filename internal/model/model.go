package model

import (
	"encoding/json"
	"regexp"
	"time"
)

// Customer identifies the paying customer on a checkout request.
type Customer struct {
	Email     string `json:"email"`
	GivenName string `json:"given_name"`
	Surname   string `json:"surname"`
	Mobile    string `json:"mobile"`
}

// BillingAddress carries the billing fields flattened into the gateway request.
type BillingAddress struct {
	Street1  string `json:"street1"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Postcode string `json:"postcode"`
}

// CheckoutRequest represents an incoming checkout-creation request.
type CheckoutRequest struct {
	Amount       string         `json:"amount"`
	Currency     string         `json:"currency"`
	PaymentBrand string         `json:"payment_brand"`
	Customer     Customer       `json:"customer"`
	Billing      BillingAddress `json:"billing"`
}

// CheckoutSession is the observable state of one gateway checkout attempt.
type CheckoutSession struct {
	CheckoutID            string          `json:"checkout_id"`
	MerchantTransactionID string          `json:"merchant_transaction_id"`
	Amount                string          `json:"amount"`
	Currency              string          `json:"currency"`
	Raw                   json.RawMessage `json:"raw"`
}

// PaymentStatus is the derived three-way outcome of a checkout, plus the
// initial pending state before any status fetch.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusSuccess PaymentStatus = "success"
	StatusFailed  PaymentStatus = "failed"
	StatusUnknown PaymentStatus = "unknown"
)

// successCodePattern is the single canonical set of success-family prefixes.
// Every call site (redirect return, webhook, polling) classifies through it.
var successCodePattern = regexp.MustCompile(`^(000\.000\.|000\.100\.1|000\.[23])`)

// Classify maps a gateway result code onto a PaymentStatus. It is a pure
// function of the code string: an empty code (absent from the payload) is
// unknown, a code matching a success-family prefix is success, and any other
// code is failed. Unknown stays distinct from failed because the gateway
// answered without a definitive code, which must not be read as a decline.
func Classify(resultCode string) PaymentStatus {
	if resultCode == "" {
		return StatusUnknown
	}
	if successCodePattern.MatchString(resultCode) {
		return StatusSuccess
	}
	return StatusFailed
}

// IsFinal returns true if the status is a definitive terminal outcome.
func (s PaymentStatus) IsFinal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CheckoutOutcome is the recorded result of a status resolution for one
// checkout. Recording is keyed by CheckoutID and upserted, so at-least-once
// delivery of returns and webhooks converges on a single row.
type CheckoutOutcome struct {
	CheckoutID   string        `json:"checkout_id" bson:"checkout_id"`
	ResourcePath string        `json:"resource_path" bson:"resource_path"`
	ResultCode   string        `json:"result_code" bson:"result_code"`
	Description  string        `json:"description" bson:"description"`
	Status       PaymentStatus `json:"status" bson:"status"`
	Amount       string        `json:"amount,omitempty" bson:"amount,omitempty"`
	Currency     string        `json:"currency,omitempty" bson:"currency,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}
