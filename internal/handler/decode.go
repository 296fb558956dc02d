package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/honey-market/internal/domain/order"
)

const maxBodySize = 64 << 10

type cartItemRequest struct {
	ProductID   int    `validate:"gt=0"`
	Weight      string `validate:"max=32"`
	Quantity    int
	hasQuantity bool
}

type promocodeRequest struct {
	Code string `validate:"required,max=64"`
}

type statusRequest struct {
	Status string `validate:"required"`
}

// decodeBody reads a JSON object from the request and hands each field to fn.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return badRequest("unreadable request body")
	}
	if len(data) > maxBodySize {
		return badRequest("request body too large")
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		return badRequest("malformed JSON body")
	}
	return nil
}

func (h *Handler) check(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errors.Wrap(err, "validate request")
	}
	fields := make([]string, len(ve))
	for i, fe := range ve {
		fields[i] = fe.Field()
	}
	return badRequest("invalid fields: " + strings.Join(fields, ", "))
}

func (h *Handler) decodeCartItem(r *http.Request) (cartItemRequest, error) {
	var req cartItemRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			req.ProductID, err = d.Int()
		case "weight":
			req.Weight, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
			req.hasQuantity = true
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return req, err
	}
	return req, h.check(req)
}

func (h *Handler) decodePromocode(r *http.Request) (promocodeRequest, error) {
	var req promocodeRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		var err error
		req.Code, err = d.Str()
		return err
	})
	if err != nil {
		return req, err
	}
	return req, h.check(req)
}

func (h *Handler) decodeStatus(r *http.Request) (statusRequest, error) {
	var req statusRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		var err error
		req.Status, err = d.Str()
		return err
	})
	if err != nil {
		return req, err
	}
	return req, h.check(req)
}

// decodeCustomer reads checkout details. Fields may be sent flat or under a
// "customer" object. Validation is left to the order service.
func decodeCustomer(r *http.Request) (order.Customer, error) {
	var c order.Customer
	var fn func(d *jx.Decoder, key string) error
	fn = func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "customer":
			err = d.Obj(fn)
		case "name":
			c.Name, err = d.Str()
		case "email":
			c.Email, err = d.Str()
		case "phone":
			c.Phone, err = d.Str()
		case "address":
			c.Address, err = d.Str()
		case "city":
			c.City, err = d.Str()
		case "note":
			c.Note, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}
	if err := decodeBody(r, fn); err != nil {
		return c, err
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.City = strings.TrimSpace(c.City)
	return c, nil
}
