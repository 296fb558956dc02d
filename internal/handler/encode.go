package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/honey-market/internal/domain/cart"
	"github.com/xenking/honey-market/internal/domain/order"
	"github.com/xenking/honey-market/internal/domain/pricing"
	"github.com/xenking/honey-market/internal/domain/product"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(e.Bytes())
	return err
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.RawStr(d.String())
}

func field(e *jx.Encoder, name string, d decimal.Decimal) {
	e.Field(name, func(e *jx.Encoder) { encodeDecimal(e, d) })
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.ArrStart()
	for _, v := range values {
		e.Str(v)
	}
	e.ArrEnd()
}

// encodeProduct writes a catalog entry together with its derived offer
// price at the nominal weight.
func encodeProduct(e *jx.Encoder, p product.Product) {
	featured := pricing.IsFeaturedOffer(p)
	unit := pricing.UnitPrice(p, p.Weight)

	e.ObjStart()
	e.Field("id", func(e *jx.Encoder) { e.Int(p.ID) })
	e.Field("slug", func(e *jx.Encoder) { e.Str(p.Slug) })
	e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
	e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
	field(e, "price", p.Price)
	field(e, "displayPrice", unit.Round(0))
	e.Field("featured", func(e *jx.Encoder) { e.Bool(featured) })
	e.Field("currency", func(e *jx.Encoder) { e.Str(p.Currency) })
	e.Field("weight", func(e *jx.Encoder) { e.Str(p.Weight) })
	e.Field("availableWeights", func(e *jx.Encoder) { encodeStrings(e, p.AvailableWeights) })
	e.Field("categorySlug", func(e *jx.Encoder) { e.Str(p.CategorySlug) })
	e.Field("seller", func(e *jx.Encoder) {
		e.ObjStart()
		e.Field("id", func(e *jx.Encoder) { e.Int(p.Seller.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Seller.Name) })
		e.Field("location", func(e *jx.Encoder) { e.Str(p.Seller.Location) })
		e.ObjEnd()
	})
	e.Field("rating", func(e *jx.Encoder) { e.Float64(p.Rating) })
	e.Field("inStock", func(e *jx.Encoder) { e.Bool(p.InStock) })
	e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
	e.Field("maxQuantity", func(e *jx.Encoder) { e.Int(cart.Limit(&p)) })
	e.Field("image", func(e *jx.Encoder) { e.Str(p.Image) })
	e.ObjEnd()
}

func encodeLineTotal(e *jx.Encoder, l pricing.LineTotal) {
	e.ObjStart()
	e.Field("productId", func(e *jx.Encoder) { e.Int(l.Product.ID) })
	e.Field("slug", func(e *jx.Encoder) { e.Str(l.Product.Slug) })
	e.Field("name", func(e *jx.Encoder) { e.Str(l.Product.Name) })
	e.Field("image", func(e *jx.Encoder) { e.Str(l.Product.Image) })
	e.Field("weight", func(e *jx.Encoder) { e.Str(l.Weight) })
	e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
	e.Field("maxQuantity", func(e *jx.Encoder) { e.Int(cart.Limit(&l.Product)) })
	field(e, "basePrice", l.BasePrice)
	field(e, "unitPrice", l.UnitPrice)
	e.Field("featured", func(e *jx.Encoder) { e.Bool(l.Featured) })
	field(e, "total", l.Total)
	e.ObjEnd()
}

func encodeView(e *jx.Encoder, v *order.View) {
	t := v.Totals
	d := t.Display()

	e.ObjStart()
	e.Field("lines", func(e *jx.Encoder) {
		e.ArrStart()
		for _, l := range t.Lines {
			encodeLineTotal(e, l)
		}
		e.ArrEnd()
	})
	e.Field("quantity", func(e *jx.Encoder) { e.Int(t.Quantity()) })
	field(e, "itemsTotal", t.ItemsTotal)
	field(e, "delivery", t.Delivery)
	field(e, "tax", t.Tax)
	field(e, "discount", t.Discount)
	field(e, "total", t.Total)
	e.Field("display", func(e *jx.Encoder) {
		e.ObjStart()
		field(e, "itemsTotal", d.ItemsTotal)
		field(e, "delivery", d.Delivery)
		field(e, "tax", d.Tax)
		field(e, "discount", d.Discount)
		field(e, "total", d.Total)
		e.ObjEnd()
	})
	e.Field("promocode", func(e *jx.Encoder) {
		if t.Promocode == "" {
			e.Null()
			return
		}
		e.Str(t.Promocode)
	})
	e.Field("currency", func(e *jx.Encoder) { e.Str(v.Currency) })
	field(e, "freeDeliveryGap", v.FreeDeliveryGap)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	c := o.Customer

	e.ObjStart()
	e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
	e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
	e.Field("customer", func(e *jx.Encoder) {
		e.ObjStart()
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(c.Phone) })
		e.Field("address", func(e *jx.Encoder) { e.Str(c.Address) })
		e.Field("city", func(e *jx.Encoder) { e.Str(c.City) })
		if c.Note != "" {
			e.Field("note", func(e *jx.Encoder) { e.Str(c.Note) })
		}
		e.ObjEnd()
	})
	e.Field("lines", func(e *jx.Encoder) {
		e.ArrStart()
		for _, l := range o.Lines {
			e.ObjStart()
			e.Field("productId", func(e *jx.Encoder) { e.Int(l.ProductID) })
			e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
			e.Field("weight", func(e *jx.Encoder) { e.Str(l.Weight) })
			e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
			field(e, "unitPrice", l.UnitPrice)
			e.Field("featured", func(e *jx.Encoder) { e.Bool(l.Featured) })
			field(e, "total", l.Total)
			e.ObjEnd()
		}
		e.ArrEnd()
	})
	field(e, "itemsTotal", o.ItemsTotal)
	field(e, "delivery", o.Delivery)
	field(e, "tax", o.Tax)
	field(e, "discount", o.Discount)
	field(e, "total", o.Total)
	field(e, "displayTotal", o.DisplayTotal())
	e.Field("promocode", func(e *jx.Encoder) { e.Str(o.Promocode) })
	e.Field("currency", func(e *jx.Encoder) { e.Str(o.Currency) })
	e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
	e.Field("updatedAt", func(e *jx.Encoder) { e.Str(o.UpdatedAt.Format(time.RFC3339)) })
	e.ObjEnd()
}
