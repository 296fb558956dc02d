package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/honey-market/internal/domain/cart"
	"github.com/xenking/honey-market/internal/domain/pricing"
	"github.com/xenking/honey-market/internal/domain/product"
)

// listProducts returns the catalog, optionally narrowed by ?category= and
// ?featured=true.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.products.List(r.Context())
	if err != nil {
		return errors.Wrap(err, "list products")
	}

	q := r.URL.Query()
	category := q.Get("category")
	featuredOnly := q.Get("featured") == "true"

	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			if category != "" && p.CategorySlug != category {
				continue
			}
			if featuredOnly && !pricing.IsFeaturedOffer(p) {
				continue
			}
			encodeProduct(e, p)
		}
		e.ArrEnd()
	})
}

// lookupProduct resolves {ref} as a numeric id or a slug.
func (h *Handler) lookupProduct(r *http.Request) (*product.Product, error) {
	ref := r.PathValue("ref")
	if id, err := strconv.Atoi(ref); err == nil {
		return h.products.GetByID(r.Context(), id)
	}
	return h.products.GetBySlug(r.Context(), ref)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) error {
	p, err := h.lookupProduct(r)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, *p) })
}

// quotePrice prices one unit of a product at ?weight=, the nominal weight by
// default.
func (h *Handler) quotePrice(w http.ResponseWriter, r *http.Request) error {
	p, err := h.lookupProduct(r)
	if err != nil {
		return err
	}
	weight := r.URL.Query().Get("weight")
	if weight == "" {
		weight = p.Weight
	}
	if !p.HasWeight(weight) {
		return cart.ErrUnknownWeight
	}

	base := pricing.PriceForWeight(*p, weight)
	featured := pricing.IsFeaturedOffer(*p)
	unit := pricing.DiscountedPrice(base, featured)
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.Field("productId", func(e *jx.Encoder) { e.Int(p.ID) })
		e.Field("weight", func(e *jx.Encoder) { e.Str(weight) })
		field(e, "basePrice", base)
		field(e, "unitPrice", unit)
		field(e, "displayPrice", unit.Round(0))
		e.Field("featured", func(e *jx.Encoder) { e.Bool(featured) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(p.Currency) })
		e.ObjEnd()
	})
}
