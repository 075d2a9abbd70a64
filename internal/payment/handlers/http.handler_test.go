package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	"github.com/k-code-yt/payment-verify/internal/payment/application"
	"github.com/k-code-yt/payment-verify/internal/payment/infra/memrepo"
	"github.com/k-code-yt/payment-verify/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicService struct {
	PaymentService
}

func (panicService) List(ctx context.Context) ([]*payment.Payment, error) {
	panic("boom")
}

func newTestRouter(store *memrepo.PaymentRepo, m *metrics.Metrics) http.Handler {
	svc := application.NewPaymentService(store, application.ServiceOptions{Recorder: m})
	return NewRouter(RouterDeps{Payments: NewPaymentHandler(svc), Metrics: m})
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestVerifyPaymentFlow(t *testing.T) {
	store := memrepo.NewPaymentRepo()
	m := metrics.New()
	r := newTestRouter(store, m)

	rec, body := do(t, r, http.MethodPost, "/api/verify-payment", `{"email":"a@b.com","txnId":"UPI123","cardId":"c1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": true, "message": "Payment verified"}, body)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec, body = do(t, r, http.MethodPost, "/api/verify-payment", `{"email":"a@b.com","txnId":"UPI123","cardId":"c1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": true, "message": "Transaction already verified earlier."}, body)
	assert.Equal(t, 1, store.Len())

	rec, body = do(t, r, http.MethodPost, "/api/verify-payment", `{"email":"a@b.com","txnId":"CASH99","cardId":"c1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Payment could not be verified automatically.", body["message"])

	rec, body = do(t, r, http.MethodPost, "/api/payments/verify", `{"txnId":"CASH99"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": true, "message": "Payment marked as verified"}, body)

	p, err := store.FindByTxnID(context.Background(), "CASH99")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusVerified, p.Status)
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	store := memrepo.NewPaymentRepo()
	r := newTestRouter(store, metrics.New())

	for _, body := range []string{
		`{"txnId":"UPI1","cardId":"c1"}`,
		`{"email":"a@b.com","cardId":"c1"}`,
		`{"email":"a@b.com","txnId":"UPI1","cardId":""}`,
		`{}`,
		`not json`,
		``,
	} {
		rec, out := do(t, r, http.MethodPost, "/api/verify-payment", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, map[string]any{"success": false, "message": "Missing required fields"}, out, body)
	}
	assert.Equal(t, 0, store.Len())
}

func TestVerifyPaymentStoreError(t *testing.T) {
	store := memrepo.NewPaymentRepo().WithError(errors.New("down"))
	r := newTestRouter(store, metrics.New())

	rec, body := do(t, r, http.MethodPost, "/api/verify-payment", `{"email":"a@b.com","txnId":"UPI1","cardId":"c1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "message": "Server error"}, body)
}

func TestListPaymentsNewestFirst(t *testing.T) {
	store := memrepo.NewPaymentRepo()
	base := time.Now().UTC().Add(-time.Hour)
	for i, txn := range []string{"UPI1", "CASH2", "UPI3"} {
		p := payment.NewPayment("a@b.com", txn, "c1")
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		store.Put(p)
	}
	r := newTestRouter(store, metrics.New())

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []payment.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, []string{"UPI3", "CASH2", "UPI1"}, []string{list[0].TxnID, list[1].TxnID, list[2].TxnID})
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
	}
	assert.Contains(t, rec.Body.String(), `"txnId":"UPI3"`)
	assert.Contains(t, rec.Body.String(), `"cardId":"c1"`)
	assert.Contains(t, rec.Body.String(), `"createdAt":`)
}

func TestListPaymentsEmpty(t *testing.T) {
	r := newTestRouter(memrepo.NewPaymentRepo(), metrics.New())

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListPaymentsStoreError(t *testing.T) {
	r := newTestRouter(memrepo.NewPaymentRepo().WithError(errors.New("down")), metrics.New())

	rec, body := do(t, r, http.MethodGet, "/api/payments", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "message": "Error fetching payments"}, body)
}

func TestManualVerifyNotFound(t *testing.T) {
	store := memrepo.NewPaymentRepo()
	r := newTestRouter(store, metrics.New())

	for _, body := range []string{`{"txnId":"GHOST"}`, `{}`, `{"txnId":""}`, ``} {
		rec, out := do(t, r, http.MethodPost, "/api/payments/verify", body)
		assert.Equal(t, http.StatusNotFound, rec.Code, body)
		assert.Equal(t, map[string]any{"success": false, "message": "Txn not found"}, out, body)
	}
	assert.Equal(t, 0, store.Len())
}

func TestManualVerifyMalformedBody(t *testing.T) {
	store := memrepo.NewPaymentRepo()
	store.Put(payment.NewPayment("a@b.com", "CASH99", "c1"))
	r := newTestRouter(store, metrics.New())

	for _, body := range []string{`garbage`, `{"txnId":`, `["CASH99"]`} {
		rec, out := do(t, r, http.MethodPost, "/api/payments/verify", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, map[string]any{"success": false, "message": "Malformed JSON body"}, out, body)
	}

	p, err := store.FindByTxnID(context.Background(), "CASH99")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
}

func TestManualVerifyStoreError(t *testing.T) {
	r := newTestRouter(memrepo.NewPaymentRepo().WithError(errors.New("down")), metrics.New())

	rec, body := do(t, r, http.MethodPost, "/api/payments/verify", `{"txnId":"CASH99"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "message": "Error updating payment"}, body)
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestRouter(memrepo.NewPaymentRepo(), metrics.New()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = do(t, newTestRouter(memrepo.NewPaymentRepo().WithError(errors.New("down")), metrics.New()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(memrepo.NewPaymentRepo(), metrics.New())

	req := httptest.NewRequest(http.MethodOptions, "/api/verify-payment", nil)
	req.Header.Set("Origin", "http://admin.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://admin.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRecovererReturnsJSON(t *testing.T) {
	r := NewRouter(RouterDeps{Payments: NewPaymentHandler(panicService{})})

	rec, body := do(t, r, http.MethodGet, "/api/payments", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "message": "Server error"}, body)
}

func TestMetricsCountRecoveredPanics(t *testing.T) {
	m := metrics.New()
	r := NewRouter(RouterDeps{Payments: NewPaymentHandler(panicService{}), Metrics: m})

	rec, _ := do(t, r, http.MethodGet, "/api/payments", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	r.ServeHTTP(mrec, req)

	require.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), `http_requests_total{endpoint="/api/payments",method="GET",status="500"} 1`)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(memrepo.NewPaymentRepo(), metrics.New())
	do(t, r, http.MethodPost, "/api/verify-payment", `{"email":"a@b.com","txnId":"UPI1","cardId":"c1"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `payment_verifications_total{outcome="verified"} 1`)
	assert.Contains(t, rec.Body.String(), `endpoint="/api/verify-payment"`)
}
