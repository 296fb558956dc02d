package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/honey-market/internal/domain/session"
)

// Store persists cart lines of one session as a JSON array.
type Store struct {
	kv session.Store
}

// NewStore returns a Store over the session-scoped kv.
func NewStore(kv session.Store) *Store {
	return &Store{kv: kv}
}

// Load returns the stored lines. A missing or unreadable cart is empty; an
// unreadable one is also removed.
func (s *Store) Load(ctx context.Context) ([]Line, error) {
	raw, ok, err := s.kv.Get(ctx, session.KeyCart)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if !ok || raw == "" {
		return nil, nil
	}
	lines, err := decodeLines([]byte(raw))
	if err != nil {
		if err := s.kv.Remove(ctx, session.KeyCart); err != nil {
			return nil, errors.Wrap(err, "drop corrupt cart")
		}
		return nil, nil
	}
	return lines, nil
}

// Save replaces the stored lines. Saving no lines removes the key.
func (s *Store) Save(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return s.Clear(ctx)
	}
	if err := s.kv.Set(ctx, session.KeyCart, string(encodeLines(lines))); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

// Clear removes all lines.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, session.KeyCart); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

func encodeLines(lines []Line) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int(l.ProductID)
		e.FieldStart("weight")
		e.Str(l.Weight)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func decodeLines(data []byte) ([]Line, error) {
	var lines []Line
	d := jx.DecodeBytes(data)
	err := d.Arr(func(d *jx.Decoder) error {
		var l Line
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "productId":
				l.ProductID, err = d.Int()
			case "weight":
				l.Weight, err = d.Str()
			case "quantity":
				l.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		if l.Quantity > 0 {
			lines = append(lines, l)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return lines, nil
}
