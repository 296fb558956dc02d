package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/honey-market/db"
)

func TestLoadCatalog(t *testing.T) {
	file := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(file, db.Catalog, 0o600))

	for _, path := range []string{"", file} {
		products, err := loadCatalog(path)
		require.NoError(t, err, "path %q", path)
		assert.NotEmpty(t, products)
		assert.Equal(t, "sumski-med-tuzla", products[0].Slug)
	}
}

func TestLoadCatalog_Errors(t *testing.T) {
	_, err := loadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id": 0, "price": 1, "weight": "1g"}]`), 0o600))
	_, err = loadCatalog(bad)
	require.Error(t, err)
}

func TestSetup_MemoryBackend(t *testing.T) {
	cfg := &Config{
		SessionBackend: BackendMemory,
		RateLimit:      RateLimitConfig{Max: 10, Window: time.Minute},
	}
	d, err := setup(context.Background(), zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	defer d.close()

	products, err := d.products.List(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, products)
	assert.NotNil(t, d.sessions)
	assert.NotNil(t, d.limiter)
	assert.Empty(t, d.sweepers)
}
