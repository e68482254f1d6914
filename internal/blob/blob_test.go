package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/appstore/internal/ir"
)

// storeContract runs the create-only behavior every backend shares.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	info, err := s.Put(ctx, "records/ab/one", []byte("payload"), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "records/ab/one", info.Key)
	assert.Equal(t, int64(7), info.Size)

	_, err = s.Put(ctx, "records/ab/one", []byte("other"), "")
	assert.ErrorIs(t, err, ErrExists)

	data, err := s.Get(ctx, "records/ab/one")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data, "create-only: first write wins")

	head, err := s.Head(ctx, "records/ab/one")
	require.NoError(t, err)
	assert.Equal(t, int64(7), head.Size)

	_, err = s.Get(ctx, "records/ab/missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Head(ctx, "records/ab/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Put(ctx, "records/cd/two", []byte("2"), "")
	require.NoError(t, err)
	_, err = s.Put(ctx, "other/three", []byte("3"), "")
	require.NoError(t, err)

	listed, err := s.List(ctx, "records/")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "records/ab/one", listed[0].Key)
	assert.Equal(t, "records/cd/two", listed[1].Key)

	_, err = s.Put(ctx, "../escape", []byte("x"), "")
	assert.Error(t, err)
	_, err = s.Put(ctx, "/abs", []byte("x"), "")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	assert.Equal(t, DriverMemory, s.Driver())
	storeContract(t, s)
}

func TestFilesystemStore(t *testing.T) {
	s, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())
	storeContract(t, s)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	_, err := s.Put(ctx, "k", []byte("abc"), "")
	require.NoError(t, err)

	data, err := s.Get(ctx, "k")
	require.NoError(t, err)
	data[0] = 'z'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.Driver())

	s, err = Open(ctx, Config{Driver: DriverFilesystem, Root: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())

	_, err = Open(ctx, Config{Driver: DriverS3})
	assert.ErrorContains(t, err, "bucket required")

	_, err = Open(ctx, Config{Driver: "gcs"})
	assert.Error(t, err)
}

func TestLedger(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"fs": func(t *testing.T) Store {
			s, err := NewFilesystem(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"s3": func(t *testing.T) Store { return newMockS3(t) },
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			l := NewLedger(newStore(t))

			body := []byte(`{"kind":"publisher"}`)
			h1, err := l.Put(ctx, body)
			require.NoError(t, err)
			assert.Equal(t, ir.ContentHash(body), h1)

			h2, err := l.Put(ctx, body)
			require.NoError(t, err, "repeat put of identical bytes succeeds")
			assert.Equal(t, h1, h2)

			got, err := l.Get(ctx, h1)
			require.NoError(t, err)
			assert.Equal(t, body, got)

			_, err = l.Get(ctx, ir.ContentHash([]byte("nope")))
			assert.ErrorIs(t, err, ir.ErrNotFound)

			n, err := l.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		})
	}
}

func TestLedgerDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	l := NewLedger(mem)

	hash := ir.ContentHash([]byte("real"))
	_, err := mem.Put(ctx, RecordKey(hash), []byte("forged"), "")
	require.NoError(t, err)

	_, err = l.Get(ctx, hash)
	assert.ErrorContains(t, err, "content hash mismatch")
}

func TestRecordKey(t *testing.T) {
	h := ir.Hash("abcdef")
	assert.Equal(t, "records/ab/abcdef", RecordKey(h))
}
