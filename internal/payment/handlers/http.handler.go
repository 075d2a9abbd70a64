package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	"github.com/k-code-yt/payment-verify/internal/payment/application"
	pkgerrors "github.com/k-code-yt/payment-verify/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	MsgServerError   = "Server error"
	MsgFetchFailed   = "Error fetching payments"
	MsgUpdateFailed  = "Error updating payment"
	MsgMalformedBody = "Malformed JSON body"

	maxBodyBytes = 1 << 20
)

type PaymentService interface {
	Verify(ctx context.Context, in application.VerifyPaymentInput) (*application.Result, error)
	List(ctx context.Context) ([]*payment.Payment, error)
	ManualVerify(ctx context.Context, txnID string) (*application.Result, error)
	Ping(ctx context.Context) error
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type manualVerifyRequest struct {
	TxnID string `json:"txnId"`
}

func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req application.VerifyPaymentInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, false, application.MsgMissingFields)
		return
	}

	res, err := h.svc.Verify(r.Context(), req)
	if err != nil {
		if pkgerrors.IsValidationError(err) {
			writeResult(w, http.StatusBadRequest, false, application.MsgMissingFields)
			return
		}
		logError(r, "PAYMENT:VERIFY_FAILED", err)
		writeResult(w, http.StatusInternalServerError, false, MsgServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.List(r.Context())
	if err != nil {
		logError(r, "PAYMENT:LIST_FAILED", err)
		writeResult(w, http.StatusInternalServerError, false, MsgFetchFailed)
		return
	}

	writeJSON(w, http.StatusOK, payments)
}

// ManualVerify answers a missing txnId like an unknown one.
func (h *PaymentHandler) ManualVerify(w http.ResponseWriter, r *http.Request) {
	var req manualVerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeResult(w, http.StatusBadRequest, false, MsgMalformedBody)
		return
	}

	res, err := h.svc.ManualVerify(r.Context(), req.TxnID)
	if err != nil {
		if pkgerrors.IsNotFoundError(err) {
			writeResult(w, http.StatusNotFound, false, application.MsgTxnNotFound)
			return
		}
		logError(r, "PAYMENT:MANUAL_VERIFY_FAILED", err)
		writeResult(w, http.StatusInternalServerError, false, MsgUpdateFailed)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		logError(r, "HEALTH:STORE_UNAVAILABLE", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeResult(w http.ResponseWriter, status int, success bool, msg string) {
	writeJSON(w, status, application.Result{Success: success, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func logError(r *http.Request, msg string, err error) {
	logrus.WithFields(logrus.Fields{
		"requestID": middleware.GetReqID(r.Context()),
		"path":      r.URL.Path,
	}).Errorf("%s %v", msg, err)
}
