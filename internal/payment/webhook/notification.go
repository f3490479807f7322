package webhook

import (
	"context"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"ipgpay-client/internal/logger"
	"ipgpay-client/internal/payment"
)

const maxNotificationBytes = 1 << 20

// Notification is a gateway callback posted to the merchant's notification_url.
type Notification struct {
	Type           string
	OrderID        string
	OrderReference string
	TransID        string
	Amount         string
	Currency       string
	Fields         *payment.ParameterSet
}

// Processor applies a verified notification to the host application.
type Processor interface {
	HandleNotification(ctx context.Context, n Notification) error
}

// Handler verifies PSSHA1 signed notifications before handing them on.
type Handler struct {
	secret    string
	processor Processor
	now       func() time.Time
}

func NewNotificationHandler(secret string, processor Processor) *Handler {
	return &Handler{
		secret:    secret,
		processor: processor,
		now:       time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, _ := logger.EnsureRequestID(r.Context())
	log := logger.FromCtx(ctx)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxNotificationBytes)
	if err := r.ParseForm(); err != nil {
		log.Warn("Failed to parse notification body", zap.Error(err))
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	params := formParameters(r)
	if err := payment.VerifySignature(params, h.secret, h.now()); err != nil {
		log.Warn("Rejected gateway notification", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	n := Notification{
		Type:           params.Value("notification_type"),
		OrderID:        params.Value("order_id"),
		OrderReference: params.Value("order_reference"),
		TransID:        params.Value("trans_id"),
		Amount:         params.Value("amount"),
		Currency:       params.Value("currency"),
		Fields:         params,
	}
	log = log.With(
		zap.String("notification_type", n.Type),
		zap.String("order_id", n.OrderID),
	)

	if err := h.processor.HandleNotification(ctx, n); err != nil {
		log.Error("Failed to process gateway notification", zap.Error(err))
		http.Error(w, "failed to process notification", http.StatusInternalServerError)
		return
	}

	log.Info("Gateway notification processed")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func formParameters(r *http.Request) *payment.ParameterSet {
	keys := make([]string, 0, len(r.PostForm))
	for k := range r.PostForm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := payment.NewParameterSet()
	for _, k := range keys {
		p.Set(k, r.PostForm.Get(k))
	}
	return p
}
