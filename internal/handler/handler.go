// Package handler exposes the order engine over HTTP. Handlers are thin:
// decode, delegate to the domain, encode. All business rules live in
// internal/domain.
package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/orderdesk/orderdesk/internal/domain/catalog"
	"github.com/orderdesk/orderdesk/internal/domain/order"
)

// Handler serves the order API endpoints.
type Handler struct {
	catalog *catalog.Cache
	orders  order.Repository
	service *order.Service
	limiter *order.Limiter
}

// New constructs a Handler with the required domain dependencies.
func New(
	cat *catalog.Cache,
	orders order.Repository,
	service *order.Service,
	limiter *order.Limiter,
) *Handler {
	return &Handler{
		catalog: cat,
		orders:  orders,
		service: service,
		limiter: limiter,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/limit", h.CheckOrderLimit)
}

// writeJSON encodes a response body with jx and writes it with the given
// status.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes a {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// writeValidationErrors writes a 422 with the collected rule failures.
func writeValidationErrors(w http.ResponseWriter, errs order.ValidationErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusUnprocessableEntity) })
			e.Field("message", func(e *jx.Encoder) { e.Str("order validation failed") })
			e.Field("errors", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, ve := range errs {
						e.Obj(func(e *jx.Encoder) {
							e.Field("rule", func(e *jx.Encoder) { e.Str(string(ve.Rule)) })
							if ve.Field != "" {
								e.Field("field", func(e *jx.Encoder) { e.Str(ve.Field) })
							}
							e.Field("message", func(e *jx.Encoder) { e.Str(ve.Message) })
						})
					}
				})
			})
		})
	})
}
