package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/orderdesk/orderdesk/internal/domain/product"
)

// ListProducts serves the cached product catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, _ *http.Request) {
	products := h.catalog.Products()

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				encodeProduct(e, p)
			}
		})
	})
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(p.UnitPrice.InexactFloat64()) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
	})
}
