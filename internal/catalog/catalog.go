// Package catalog decodes the static product catalog asset and normalises
// it at the loading boundary, so the rest of the service can rely on every
// Product being well formed.
package catalog

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/honey-market/internal/domain/product"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid catalog")

// LoadFile reads a catalog from path. Paths ending in ".gz" are
// decompressed.
func LoadFile(path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip catalog")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return Load(r)
}

// Load decodes a JSON array of products from r and validates it.
func Load(r io.Reader) ([]product.Product, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return Parse(data)
}

// Parse decodes and validates a JSON catalog.
func Parse(data []byte) ([]product.Product, error) {
	var products []product.Product
	d := jx.DecodeBytes(bytes.TrimSpace(data))
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "product #%d", len(products))
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	if err := Normalize(products); err != nil {
		return nil, err
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int()
		case "slug":
			p.Slug, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = optStr(d)
		case "price":
			p.Price, err = decodeDecimal(d)
		case "weight":
			p.Weight, err = d.Str()
		case "availableWeights":
			err = d.Arr(func(d *jx.Decoder) error {
				w, err := d.Str()
				if err != nil {
					return err
				}
				p.AvailableWeights = append(p.AvailableWeights, w)
				return nil
			})
		case "categorySlug":
			p.CategorySlug, err = d.Str()
		case "seller":
			p.Seller, err = decodeSeller(d)
		case "rating":
			p.Rating, err = d.Float64()
		case "inStock":
			p.InStock, err = d.Bool()
		case "stock":
			p.Stock, err = d.Int()
		case "currency":
			p.Currency, err = optStr(d)
		case "image":
			p.Image, err = optStr(d)
		case "images":
			err = d.Arr(func(d *jx.Decoder) error {
				img, err := d.Str()
				if err == nil && p.Image == "" {
					p.Image = img
				}
				return err
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return p, err
}

func decodeSeller(d *jx.Decoder) (product.Seller, error) {
	var s product.Seller
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			s.ID, err = d.Int()
		case "name":
			s.Name, err = d.Str()
		case "location":
			s.Location, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return s, err
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}

func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// Normalize validates products in place, rejecting entries that cannot be
// priced safely and filling in derivable fields.
func Normalize(products []product.Product) error {
	ids := make(map[int]struct{}, len(products))
	slugs := make(map[string]struct{}, len(products))
	for i := range products {
		p := &products[i]
		switch {
		case p.ID <= 0:
			return errors.Wrapf(ErrInvalid, "product #%d: id must be positive", i)
		case p.Price.IsNegative():
			return errors.Wrapf(ErrInvalid, "product %d: negative price", p.ID)
		case p.Stock < 0:
			return errors.Wrapf(ErrInvalid, "product %d: negative stock", p.ID)
		case p.Weight == "":
			return errors.Wrapf(ErrInvalid, "product %d: weight is required", p.ID)
		}
		if _, dup := ids[p.ID]; dup {
			return errors.Wrapf(ErrInvalid, "duplicate product id %d", p.ID)
		}
		ids[p.ID] = struct{}{}

		if p.Slug == "" {
			p.Slug = strconv.Itoa(p.ID)
		}
		if _, dup := slugs[p.Slug]; dup {
			return errors.Wrapf(ErrInvalid, "duplicate product slug %q", p.Slug)
		}
		slugs[p.Slug] = struct{}{}

		if !p.HasWeight(p.Weight) {
			p.AvailableWeights = append([]string{p.Weight}, p.AvailableWeights...)
		}
		if p.Currency == "" {
			p.Currency = product.DefaultCurrency
		}
		if p.Stock == 0 {
			p.InStock = false
		}
	}
	return nil
}
