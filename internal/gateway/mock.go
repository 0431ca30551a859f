package gateway

import (
	"context"
	"encoding/json"
	"sync"
)

// StubConfig holds configuration for creating a stub gateway client.
type StubConfig struct {
	// CheckoutID is returned by every CreateCheckout call.
	CheckoutID string
	// ResultCode is returned by every PaymentStatus call; empty means the
	// status payload carries no result block at all.
	ResultCode string
	// Description accompanies ResultCode in status payloads.
	Description string
	// CheckoutErr, if set, fails every CreateCheckout call.
	CheckoutErr error
	// StatusErr, if set, fails every PaymentStatus call.
	StatusErr error
}

// Stub simulates a gateway with configurable behavior. It records call
// counts so tests can assert that validation gates short-circuit before any
// outbound call is made.
type Stub struct {
	mu             sync.Mutex
	config         StubConfig
	checkoutCalls  int
	statusCalls    int
	lastParams     CheckoutParams
	lastStatusPath string
}

// NewStub creates a stub gateway client from the given config.
func NewStub(cfg StubConfig) *Stub {
	return &Stub{config: cfg}
}

func (s *Stub) CreateCheckout(_ context.Context, params CheckoutParams) (*CheckoutResult, error) {
	s.mu.Lock()
	s.checkoutCalls++
	s.lastParams = params
	cfg := s.config
	s.mu.Unlock()

	if cfg.CheckoutErr != nil {
		return nil, cfg.CheckoutErr
	}

	res := &CheckoutResult{
		ID:     cfg.CheckoutID,
		Result: Result{Code: "000.200.100", Description: "successfully created checkout"},
	}
	res.Raw, _ = json.Marshal(res)
	return res, nil
}

func (s *Stub) PaymentStatus(_ context.Context, resourcePath string) (*StatusResult, error) {
	s.mu.Lock()
	s.statusCalls++
	s.lastStatusPath = resourcePath
	cfg := s.config
	s.mu.Unlock()

	if cfg.StatusErr != nil {
		return nil, cfg.StatusErr
	}

	res := &StatusResult{
		ID:     cfg.CheckoutID,
		Result: Result{Code: cfg.ResultCode, Description: cfg.Description},
	}
	res.Raw, _ = json.Marshal(res)
	return res, nil
}

// SetResultCode swaps the result code returned by subsequent status calls.
func (s *Stub) SetResultCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.ResultCode = code
}

// CheckoutCalls returns how many CreateCheckout calls were made.
func (s *Stub) CheckoutCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutCalls
}

// StatusCalls returns how many PaymentStatus calls were made.
func (s *Stub) StatusCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls
}

// LastParams returns the params of the most recent CreateCheckout call.
func (s *Stub) LastParams() CheckoutParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastParams
}

// LastStatusPath returns the resource path of the most recent status call.
func (s *Stub) LastStatusPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStatusPath
}
