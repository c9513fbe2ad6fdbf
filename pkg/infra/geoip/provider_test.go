package geoip

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_NoDatabases(t *testing.T) {
	p, err := NewProvider(Config{}, logger.Discard())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Lookup(context.Background(), "8.8.8.8")
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestProvider_InvalidIP(t *testing.T) {
	p, err := NewProvider(Config{}, logger.Discard())
	require.NoError(t, err)

	_, err = p.Lookup(context.Background(), "not-an-ip")
	assert.Error(t, err)
}

func TestProvider_MissingFile(t *testing.T) {
	_, err := NewProvider(Config{CountryDB: filepath.Join(t.TempDir(), "missing.mmdb")}, logger.Discard())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProvider_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, err := NewProvider(Config{ASNDB: path}, logger.Discard())
	assert.Error(t, err)
}

func TestProvider_CancelledContext(t *testing.T) {
	p, err := NewProvider(Config{}, logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Lookup(ctx, "8.8.8.8")
	assert.ErrorIs(t, err, context.Canceled)
}
