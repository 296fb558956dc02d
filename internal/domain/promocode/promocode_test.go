package promocode

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/honey-market/internal/domain/session"
)

type mapKV struct {
	m      map[string]string
	setErr error
}

func newMapKV() *mapKV {
	return &mapKV{m: make(map[string]string)}
}

func (kv *mapKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := kv.m[key]
	return v, ok, nil
}

func (kv *mapKV) Set(_ context.Context, key, value string) error {
	if kv.setErr != nil {
		return kv.setErr
	}
	kv.m[key] = value
	return nil
}

func (kv *mapKV) Remove(_ context.Context, key string) error {
	delete(kv.m, key)
	return nil
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"kosnica10", true},
		{"KOSNICA10", true},
		{"Med10", true},
		{"promo", true},
		{"  PROMO ", true},
		{"bogus", false},
		{"", false},
		{"kosnica", false},
		{"promo10", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.code))
		})
	}
	assert.Equal(t, IsValid("KOSNICA10"), IsValid("kosnica10"))
}

func TestSet_SkipsBlankAndDuplicates(t *testing.T) {
	s := NewSet("A", "a", " ", "b")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("B"))
	assert.False(t, s.Contains(""))
}

func TestStore_ApplyAndLoad(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	s := NewStore(kv)

	code, err := s.Apply(ctx, "MED10")
	require.NoError(t, err)
	assert.Equal(t, "med10", code)
	assert.Equal(t, "med10", kv.m[session.KeyPromocode])

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "med10", got)
}

func TestStore_ApplyInvalidKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	s := NewStore(kv)

	_, err := s.Apply(ctx, "promo")
	require.NoError(t, err)

	_, err = s.Apply(ctx, "bogus")
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "promo", kv.m[session.KeyPromocode])
}

func TestStore_LoadClearsStaleCode(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	kv.m[session.KeyPromocode] = "summer2019"
	s := NewStore(kv)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotContains(t, kv.m, session.KeyPromocode)
}

func TestStore_LoadEmpty(t *testing.T) {
	got, err := NewStore(newMapKV()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ApplySaveError(t *testing.T) {
	kv := newMapKV()
	kv.setErr = errors.New("kv down")

	_, err := NewStore(kv).Apply(context.Background(), "promo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save promocode")
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	s := NewStore(kv)
	_, err := s.Apply(ctx, "promo")
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
