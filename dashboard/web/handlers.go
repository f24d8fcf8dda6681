// Package web exposes the dashboard's fixed navigation surface as JSON
// endpoints. Each view endpoint owns its load/cache/refresh cycle; nothing
// here touches financial state beyond relaying requests to the agent.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	cachex "github.com/payflowhq/payflow/dashboard/cache"
	contractx "github.com/payflowhq/payflow/dashboard/contract"
	"github.com/payflowhq/payflow/dashboard/service"
	paymanx "github.com/payflowhq/payflow/pkg/payman"
)

const recentPaymentsShown = 5

// Pinger is a cache backend that can report its own liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler carries the dashboard's HTTP endpoints.
type Handler struct {
	svc    *service.PaymentService
	keeper *cachex.Keeper
	pinger Pinger

	stats    *loader
	payments *loader
	payees   *loader
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithPinger registers a cache backend liveness check for the health endpoint.
func WithPinger(p Pinger) HandlerOption {
	return func(h *Handler) {
		h.pinger = p
	}
}

func NewHandler(svc *service.PaymentService, keeper *cachex.Keeper, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:    svc,
		keeper: keeper,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.stats = &loader{
		key:    cachex.DashboardKey,
		keeper: keeper,
		fetch: func(ctx context.Context) (any, bool, error) {
			stats, mock, err := svc.DashboardStats(ctx)
			return stats, mock, err
		},
	}
	h.payments = &loader{
		key:    cachex.PaymentsKey,
		keeper: keeper,
		fetch: func(ctx context.Context) (any, bool, error) {
			payments, mock, err := svc.FetchPayments(ctx)
			return payments, mock, err
		},
	}
	h.payees = &loader{
		key:    cachex.PayeesKey,
		keeper: keeper,
		fetch: func(ctx context.Context) (any, bool, error) {
			payees, mock, err := svc.FetchPayees(ctx)
			return payees, mock, err
		},
	}
	return h
}

func forced(r *http.Request) bool {
	return r.URL.Query().Get("refresh") == "1"
}

func (h *Handler) cachedMock() bool {
	return h.svc.CredentialStatus().UsingMockData
}

// Landing answers the root path with the navigation surface.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name": "payflow",
		"views": []string{
			"/api/dashboard",
			"/api/payments",
			"/api/payees",
			"/api/settings",
		},
	})
}

// Dashboard renders the stats plus the most recent payments. Both datasets
// are judged by the dashboard's own 2-minute staleness bound, even though the
// payment list entry is shared with the payments view.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	force := forced(r)

	stats, err := h.stats.load(r.Context(), cachex.DashboardTTL, force, h.cachedMock())
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to load dashboard stats")
		return
	}
	payments, err := h.payments.load(r.Context(), cachex.DashboardTTL, force, h.cachedMock())
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to load recent payments")
		return
	}

	recent := recentPayments(payments.Data)

	notice := stats.Notice
	if notice == "" {
		notice = payments.Notice
	}
	respondJSON(w, http.StatusOK, viewData{
		Data: map[string]any{
			"stats":          stats.Data,
			"recentPayments": recent,
		},
		Mock:      stats.Mock || payments.Mock,
		Cached:    stats.Cached && payments.Cached,
		FetchedAt: stats.FetchedAt,
		Notice:    notice,
	})
}

// recentPayments trims the payment dataset to the dashboard's preview size.
// The dataset arrives either as typed records (fresh fetch) or raw JSON
// (cache hit).
func recentPayments(data any) any {
	switch v := data.(type) {
	case []contractx.Payment:
		if len(v) > recentPaymentsShown {
			return v[:recentPaymentsShown]
		}
		return v
	case json.RawMessage:
		var payments []contractx.Payment
		if err := json.Unmarshal(v, &payments); err != nil {
			return data
		}
		if len(payments) > recentPaymentsShown {
			return payments[:recentPaymentsShown]
		}
		return payments
	default:
		return data
	}
}

// Payments renders the payment list view.
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	out, err := h.payments.load(r.Context(), cachex.PaymentsTTL, forced(r), h.cachedMock())
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to load payments")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// Payees renders the payee list view.
func (h *Handler) Payees(w http.ResponseWriter, r *http.Request) {
	out, err := h.payees.load(r.Context(), cachex.PayeesTTL, forced(r), h.cachedMock())
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to load payees")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// CreatePayee handles the add-payee form.
func (h *Handler) CreatePayee(w http.ResponseWriter, r *http.Request) {
	var in contractx.NewPayee
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payee, err := h.svc.CreatePayee(r.Context(), in)
	if err != nil {
		h.respondCreateError(w, err, "failed to create payee")
		return
	}
	respondJSON(w, http.StatusCreated, payee)
}

// CreatePayment handles the new-payment form.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var in contractx.NewPayment
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.svc.CreatePayment(r.Context(), in)
	if err != nil {
		h.respondCreateError(w, err, "failed to create payment")
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

type quickPayRequest struct {
	Amount float64 `json:"amount"`
	Payee  string  `json:"payee"`
}

// QuickPay handles the quick-pay form.
func (h *Handler) QuickPay(w http.ResponseWriter, r *http.Request) {
	var in quickPayRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.svc.QuickPay(r.Context(), in.Amount, in.Payee)
	if err != nil {
		h.respondCreateError(w, err, "failed to process quick payment")
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

// Settings renders the credential status view.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.CredentialStatus())
}

// Health reports process liveness and, when the cache backend supports it,
// backend reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("cache backend unreachable")
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"cache":  "unreachable",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondCreateError(w http.ResponseWriter, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, contractx.ErrInvalidRecord):
		respondError(w, http.StatusBadRequest, err.Error())
	case paymanx.IsRateLimited(err):
		respondError(w, http.StatusTooManyRequests, rateLimitNotice)
	default:
		log.Error().Err(err).Msg(fallbackMsg)
		respondError(w, http.StatusBadGateway, fallbackMsg)
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
