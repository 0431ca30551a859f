package verifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paypass/paypass-backend/internal/gateway"
	"github.com/paypass/paypass-backend/internal/model"
)

// ValidationError indicates missing or malformed required input. It is the
// caller's fault and always maps to a 4xx response; no outbound gateway call
// is made once validation fails.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Verifier drives a checkout through creation, return handling, and
// authoritative status resolution against the gateway.
type Verifier struct {
	client gateway.Client
	store  OutcomeStore
}

// New creates a Verifier with the given gateway client and outcome store.
func New(client gateway.Client, store OutcomeStore) *Verifier {
	return &Verifier{client: client, store: store}
}

// CreateCheckout validates the request and registers a checkout with the
// gateway. The amount is canonicalized to two decimal places before sending.
func (v *Verifier) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	if req.Amount == "" {
		return nil, &ValidationError{Message: "amount is required"}
	}
	if req.Currency == "" {
		return nil, &ValidationError{Message: "currency is required"}
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, &ValidationError{Message: "amount must be a positive decimal"}
	}

	txnID := uuid.NewString()
	params := gateway.CheckoutParams{
		Amount:                amount.StringFixed(2),
		Currency:              req.Currency,
		PaymentBrand:          req.PaymentBrand,
		MerchantTransactionID: txnID,
		Customer:              req.Customer,
		Billing:               req.Billing,
	}

	res, err := v.client.CreateCheckout(ctx, params)
	if err != nil {
		slog.Error("checkout_creation_failed",
			"merchant_txn_id", txnID,
			"error", err,
		)
		return nil, err
	}

	slog.Info("checkout_created",
		"checkout_id", res.ID,
		"merchant_txn_id", txnID,
		"amount", params.Amount,
		"currency", params.Currency,
	)

	return &model.CheckoutSession{
		CheckoutID:            res.ID,
		MerchantTransactionID: txnID,
		Amount:                params.Amount,
		Currency:              params.Currency,
		Raw:                   res.Raw,
	}, nil
}

// HandleReturn resolves the authoritative outcome of a checkout: validate
// both identifiers, fetch status, classify, record by upsert. The browser
// redirect, the webhook, and the polling endpoint all go through here.
// Both redirects and webhooks deliver at least once, so the sequence is
// idempotent per checkout id rather than locked.
func (v *Verifier) HandleReturn(ctx context.Context, checkoutID, resourcePath string) (*model.CheckoutOutcome, error) {
	if checkoutID == "" {
		return nil, &ValidationError{Message: "checkout id is required"}
	}
	if resourcePath == "" {
		return nil, &ValidationError{Message: "resource path is required"}
	}

	res, err := v.client.PaymentStatus(ctx, resourcePath)
	if err != nil {
		slog.Error("status_fetch_failed",
			"checkout_id", checkoutID,
			"error", err,
		)
		return nil, err
	}

	outcome := model.CheckoutOutcome{
		CheckoutID:   checkoutID,
		ResourcePath: resourcePath,
		ResultCode:   res.Result.Code,
		Description:  res.Result.Description,
		Status:       model.Classify(res.Result.Code),
		Amount:       res.Amount,
		Currency:     res.Currency,
		UpdatedAt:    time.Now().UTC(),
	}

	// Recording is best-effort: a down database must not turn a resolved
	// payment into an error for the caller.
	if err := v.store.Upsert(ctx, outcome); err != nil {
		slog.Error("outcome_record_failed",
			"checkout_id", checkoutID,
			"status", outcome.Status,
			"error", err,
		)
	}

	slog.Info("checkout_resolved",
		"checkout_id", checkoutID,
		"result_code", outcome.ResultCode,
		"status", outcome.Status,
	)

	return &outcome, nil
}

// RecordedOutcome returns the last recorded outcome for a checkout, if any.
func (v *Verifier) RecordedOutcome(ctx context.Context, checkoutID string) (*model.CheckoutOutcome, bool, error) {
	if checkoutID == "" {
		return nil, false, &ValidationError{Message: "checkout id is required"}
	}
	o, ok, err := v.store.Get(ctx, checkoutID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &o, true, nil
}
