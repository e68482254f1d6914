package substrate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/appstore/internal/blob"
	"github.com/roach88/appstore/internal/config"
	"github.com/roach88/appstore/internal/ir"
)

func TestOpen_SQLBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DSN = ":memory:"

	sub, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer sub.Close()

	ctx := context.Background()
	a, err := sub.Records.Put(ctx, []byte(`{"a":1}`))
	require.NoError(t, err)
	b, err := sub.Records.Put(ctx, []byte(`{"b":2}`))
	require.NoError(t, err)
	require.NoError(t, sub.Links.Link(ctx, a, b, ir.LinkUpdate, ""))

	stats, err := sub.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"records": 2, "links": 1}, stats)
}

func TestOpen_BlobBackend(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DSN = ":memory:"
	cfg.Ledger.Backend = config.LedgerBlob
	cfg.Ledger.Blob = config.BlobConfig{Driver: string(blob.DriverFilesystem), Root: root}

	sub, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer sub.Close()

	ctx := context.Background()
	h, err := sub.Records.Put(ctx, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, blob.RecordKey(h)))

	stats, err := sub.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["records"])
	assert.Equal(t, int64(0), stats["links"])
}

func TestOpen_BadDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "mysql"
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}
