package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventra/internal/delivery/http/helpers"
	"eventra/internal/domain"
)

// transactionIDKeys are the parameter names the gateway may use for the transaction id.
var transactionIDKeys = []string{"transactionId", "txnId", "transaction_id", "tran_id"}

// IPNResponse is the data payload for POST /payment/ipn.
type IPNResponse struct {
	Valid  bool   `json:"valid"`
	Status string `json:"status"`
}

// PaymentController serves the gateway's browser callbacks and IPN. A success
// callback carrying val_id is checked with the gateway before any state moves.
// With RequireValID set, a success callback without val_id is refused.
type PaymentController struct {
	Logger       *slog.Logger
	Service      domain.PaymentReconciler
	FrontendURL  string
	RequireValID bool
}

func NewPaymentController(logger *slog.Logger, svc domain.PaymentReconciler, frontendURL string, requireValID bool) *PaymentController {
	return &PaymentController{
		Logger:       logger,
		Service:      svc,
		FrontendURL:  strings.TrimSuffix(frontendURL, "/"),
		RequireValID: requireValID,
	}
}

// Success godoc
// @Summary Gateway success callback
// @Description Marks the payment PAID, confirms the participant and credits host/platform income. Safe to call repeatedly. Redirects to the client dashboard.
// @Tags payment
// @Param transactionId query string true "Transaction ID (aliases: txnId, transaction_id, tran_id)"
// @Param val_id query string false "Gateway validation id; when present the gateway must report the payment VALID"
// @Success 303 "Redirect to ${FRONTEND_URL}/client/dashboard/my-events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (missing id or payment not validated)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Failure 502 {object} helpers.APIResponse "error.code: upstream_error"
// @Router /payment/success [post]
func (c *PaymentController) Success(w http.ResponseWriter, r *http.Request) {
	c.reconcile(w, r, domain.OutcomeSuccess, "/client/dashboard/my-events")
}

// Fail godoc
// @Summary Gateway fail callback
// @Description Cancels a pending payment, marks the participant LEFT and releases the seat. Redirects to the events list.
// @Tags payment
// @Param transactionId query string true "Transaction ID (aliases: txnId, transaction_id, tran_id)"
// @Success 303 "Redirect to ${FRONTEND_URL}/all-events"
// @Router /payment/fail [post]
func (c *PaymentController) Fail(w http.ResponseWriter, r *http.Request) {
	c.reconcile(w, r, domain.OutcomeFail, "/all-events")
}

// Cancel godoc
// @Summary Gateway cancel callback
// @Description Same as fail.
// @Tags payment
// @Param transactionId query string true "Transaction ID (aliases: txnId, transaction_id, tran_id)"
// @Success 303 "Redirect to ${FRONTEND_URL}/all-events"
// @Router /payment/cancel [post]
func (c *PaymentController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.reconcile(w, r, domain.OutcomeCancel, "/all-events")
}

func (c *PaymentController) reconcile(w http.ResponseWriter, r *http.Request, outcome domain.CallbackOutcome, redirectPath string) {
	txnID := transactionIDFrom(r)
	if txnID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "transaction id is required")
		return
	}
	if outcome == domain.OutcomeSuccess && !c.verified(w, r, txnID) {
		return
	}
	if _, err := c.Service.Reconcile(r.Context(), txnID, outcome); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	http.Redirect(w, r, c.FrontendURL+redirectPath, http.StatusSeeOther)
}

// IPN godoc
// @Summary Gateway IPN validation
// @Description Validates a server-to-server notification with the gateway. Never changes payment, participant or income state.
// @Tags payment
// @Accept x-www-form-urlencoded
// @Produce json
// @Param val_id formData string true "Gateway validation id"
// @Param tran_id formData string false "Transaction ID"
// @Success 200 {object} helpers.APIResponse "data contains valid and status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 502 {object} helpers.APIResponse "error.code: upstream_error"
// @Router /payment/ipn [post]
func (c *PaymentController) IPN(w http.ResponseWriter, r *http.Request) {
	valID := strings.TrimSpace(r.FormValue("val_id"))
	if valID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "val_id is required")
		return
	}
	v, err := c.Service.ValidateNotification(r.Context(), valID, transactionIDFrom(r))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, IPNResponse{Valid: v.Valid, Status: v.Status})
}

// verified checks a success callback's val_id with the gateway. It writes the
// error response itself and returns false when the payment must not be applied.
func (c *PaymentController) verified(w http.ResponseWriter, r *http.Request, txnID string) bool {
	valID := strings.TrimSpace(r.FormValue("val_id"))
	if valID == "" {
		if c.RequireValID {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "val_id is required")
			return false
		}
		return true
	}
	v, err := c.Service.ValidateNotification(r.Context(), valID, txnID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return false
	}
	if !v.Valid {
		c.Logger.WarnContext(r.Context(), "success callback rejected by gateway validation",
			"transaction_id", txnID,
			"status", v.Status,
		)
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "payment not validated by gateway")
		return false
	}
	return true
}

// transactionIDFrom reads the first non-empty alias from the query string or form body.
func transactionIDFrom(r *http.Request) string {
	for _, k := range transactionIDKeys {
		if v := strings.TrimSpace(r.FormValue(k)); v != "" {
			return v
		}
	}
	return ""
}
