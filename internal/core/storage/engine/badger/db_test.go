package badger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doytsujin/QuantumGate/internal/core/storage/engine"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	cfg := engine.DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	eng, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, eng.Start())

	t.Cleanup(func() {
		assert.NoError(t, eng.Close())
	})
	return eng
}

func TestEngine_PutGetDelete(t *testing.T) {
	eng := newTestEngine(t)

	require.NoError(t, eng.Put([]byte("k"), []byte("v")))

	got, err := eng.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := eng.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, eng.Delete([]byte("k")))
	_, err = eng.Get([]byte("k"))
	assert.True(t, engine.IsNotFound(err))

	ok, err = eng.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_EmptyKey(t *testing.T) {
	eng := newTestEngine(t)

	assert.ErrorIs(t, eng.Put(nil, []byte("v")), engine.ErrEmptyKey)
	_, err := eng.Get(nil)
	assert.ErrorIs(t, err, engine.ErrEmptyKey)
}

func TestEngine_BatchAndPrefixIterator(t *testing.T) {
	eng := newTestEngine(t)

	b := eng.NewBatch()
	b.Put([]byte("a/1"), []byte("one"))
	b.Put([]byte("a/2"), []byte("two"))
	b.Put([]byte("b/1"), []byte("other"))
	assert.Equal(t, 3, b.Size())
	require.NoError(t, b.Write())
	assert.ErrorIs(t, b.Write(), engine.ErrBatchClosed)

	iter := eng.NewPrefixIterator([]byte("a/"))
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"a/1", "a/2"}, keys)
}

func TestEngine_Closed(t *testing.T) {
	cfg := engine.DefaultConfig("")
	cfg.InMemory = true
	eng, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())

	assert.ErrorIs(t, eng.Put([]byte("k"), nil), engine.ErrClosed)
	assert.ErrorIs(t, eng.Start(), engine.ErrClosed)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)

	_, err = New(engine.DefaultConfig(""))
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}
