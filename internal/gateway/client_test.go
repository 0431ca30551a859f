package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paypass/paypass-backend/internal/model"
)

func newTestClient(srv *httptest.Server) *HyperPay {
	return NewHyperPay(srv.URL, "test-token", "entity-123", &http.Client{Timeout: 2 * time.Second})
}

func TestCreateCheckout_SendsFormFields(t *testing.T) {
	var gotAuth, gotContentType string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"8ac7a49f","result":{"code":"000.200.100","description":"created"}}`))
	}))
	defer srv.Close()

	g := newTestClient(srv)
	res, err := g.CreateCheckout(context.Background(), CheckoutParams{
		Amount:                "92.00",
		Currency:              "SAR",
		PaymentBrand:          "MADA",
		MerchantTransactionID: "txn-1",
		Customer: model.Customer{
			Email:     "rider@example.com",
			GivenName: "Sara",
			Surname:   "Hassan",
		},
		Billing: model.BillingAddress{
			Street1: "King Fahd Rd",
			City:    "Riyadh",
			Country: "SA",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "8ac7a49f", res.ID)
	assert.Equal(t, "000.200.100", res.Result.Code)
	assert.NotEmpty(t, res.Raw)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "entity-123", gotForm["entityId"])
	assert.Equal(t, "92.00", gotForm["amount"])
	assert.Equal(t, "SAR", gotForm["currency"])
	assert.Equal(t, "DB", gotForm["paymentType"])
	assert.Equal(t, "txn-1", gotForm["merchantTransactionId"])
	assert.Equal(t, "rider@example.com", gotForm["customer.email"])
	assert.Equal(t, "Riyadh", gotForm["billing.city"])
	assert.Equal(t, "true", gotForm["customParameters[3DS2_enrolled]"])
}

func TestCreateCheckout_OmitsEmptyOptionalFields(t *testing.T) {
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"ck-1","result":{"code":"000.200.100"}}`))
	}))
	defer srv.Close()

	g := newTestClient(srv)
	_, err := g.CreateCheckout(context.Background(), CheckoutParams{
		Amount:   "10.00",
		Currency: "SAR",
	})
	require.NoError(t, err)

	assert.NotContains(t, gotForm, "customer.email")
	assert.NotContains(t, gotForm, "billing.city")
	assert.NotContains(t, gotForm, "customParameters[3DS2_enrolled]")
}

func TestCreateCheckout_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"result":{"code":"200.300.404","description":"invalid or missing parameter"}}`))
	}))
	defer srv.Close()

	g := newTestClient(srv)
	_, err := g.CreateCheckout(context.Background(), CheckoutParams{Amount: "1.00", Currency: "SAR"})

	var gErr *GatewayError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, http.StatusBadRequest, gErr.StatusCode)
	assert.Contains(t, gErr.Body, "200.300.404")
}

func TestCreateCheckout_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // no listener left

	g := newTestClient(srv)
	_, err := g.CreateCheckout(context.Background(), CheckoutParams{Amount: "1.00", Currency: "SAR"})

	var nErr *NetworkError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "checkout", nErr.Op)
}

func TestPaymentStatus_FetchesResourcePath(t *testing.T) {
	var gotPath, gotEntity string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotEntity = r.URL.Query().Get("entityId")
		w.Write([]byte(`{"id":"ck-1","amount":"92.00","currency":"SAR","result":{"code":"000.100.110","description":"succeeded"}}`))
	}))
	defer srv.Close()

	g := newTestClient(srv)
	res, err := g.PaymentStatus(context.Background(), "/v1/checkouts/ck-1/payment")
	require.NoError(t, err)

	assert.Equal(t, "/v1/checkouts/ck-1/payment", gotPath)
	assert.Equal(t, "entity-123", gotEntity)
	assert.Equal(t, "000.100.110", res.Result.Code)
	assert.Equal(t, "92.00", res.Amount)
}

func TestPaymentStatus_MissingResultBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := newTestClient(srv)
	res, err := g.PaymentStatus(context.Background(), "/v1/checkouts/ck-1/payment")
	require.NoError(t, err)
	assert.Empty(t, res.Result.Code)
}

func TestPaymentStatus_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := newTestClient(srv)
	_, err := g.PaymentStatus(context.Background(), "/v1/checkouts/ck-1/payment")

	var nErr *NetworkError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "status", nErr.Op)
}
