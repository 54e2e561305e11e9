package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/orderdesk/orderdesk/internal/domain/order"
)

// createOrderRequest mirrors the order draft the client assembled.
type createOrderRequest struct {
	CustomerName string             `json:"customerName"`
	Email        string             `json:"email"`
	Products     []orderLinePayload `json:"products"`
}

type orderLinePayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrder replays the submitted draft through the engine against the
// current catalog and submits it. Rule failures come back as structured 422
// errors; they never crash the request.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d := order.NewDraft(h.catalog)
	d.SetCustomerName(req.CustomerName)
	d.SetEmail(req.Email)
	for i, line := range req.Products {
		d.AddLine()
		if err := d.SetProduct(i, line.ProductID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := d.SetQuantity(i, line.Quantity); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	o, err := h.service.Submit(r.Context(), d)
	if err != nil {
		var verrs order.ValidationErrors
		if errors.As(err, &verrs) {
			writeValidationErrors(w, verrs)
			return
		}
		zctx.From(r.Context()).Error("Order submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create order")
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}

// ListOrders serves stored orders. An "email" query narrows to one customer's
// history; a "q" query applies the case-insensitive substring filter over
// customer name and email.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []order.Order
		err    error
	)

	if email := r.URL.Query().Get("email"); email != "" {
		orders, err = h.orders.ListByEmail(r.Context(), email)
	} else {
		orders, err = h.orders.List(r.Context())
	}
	if err != nil {
		zctx.From(r.Context()).Error("Listing orders failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list orders")
		return
	}

	orders = order.FilterOrders(orders, r.URL.Query().Get("q"))

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, o := range orders {
				encodeOrder(e, o)
			}
		})
	})
}

// CheckOrderLimit runs the history rate limiter for an email so the client
// can validate the field while the clerk types. The check fails open, so the
// response is always 200 with {ok, reason}.
func (h *Handler) CheckOrderLimit(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	res := h.limiter.Check(r.Context(), email, time.Now())

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("ok", func(e *jx.Encoder) { e.Bool(res.OK) })
			if res.Reason != "" {
				e.Field("reason", func(e *jx.Encoder) { e.Str(res.Reason) })
			}
		})
	})
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("customerName", func(e *jx.Encoder) { e.Str(o.CustomerName) })
		e.Field("email", func(e *jx.Encoder) { e.Str(o.Email) })
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, line := range o.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(line.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(line.Quantity) })
					})
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Float64(o.Total.InexactFloat64()) })
		e.Field("orderCode", func(e *jx.Encoder) { e.Str(o.OrderCode) })
		e.Field("timestamp", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}
