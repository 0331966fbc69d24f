package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doytsujin/QuantumGate/internal/core/storage/engine"
	"github.com/doytsujin/QuantumGate/internal/core/storage/engine/badger"
)

// testStore 创建测试用 Store
func testStore(t *testing.T, prefix string) *Store {
	t.Helper()

	eng, err := badger.New(engine.DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, eng.Close())
	})

	return New(eng, []byte(prefix))
}

type record struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestStore_PrefixIsolation(t *testing.T) {
	s := testStore(t, "a/")
	other := New(s.engine, []byte("b/"))

	require.NoError(t, s.Put([]byte("k"), []byte("from-a")))
	require.NoError(t, other.Put([]byte("k"), []byte("from-b")))

	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from-a"), got)

	raw, err := s.engine.Get([]byte("b/k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from-b"), raw)

	require.NoError(t, s.Delete([]byte("k")))
	ok, err := s.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = other.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_JSON(t *testing.T) {
	s := testStore(t, "j/")

	require.NoError(t, s.PutJSON([]byte("x"), record{Name: "x", Score: -5}))

	var r record
	require.NoError(t, s.GetJSON([]byte("x"), &r))
	assert.Equal(t, record{Name: "x", Score: -5}, r)

	err := s.GetJSON([]byte("missing"), &r)
	assert.True(t, engine.IsNotFound(err))
}

func TestStore_ScanAndDeletePrefix(t *testing.T) {
	root := testStore(t, "a/")
	reps := root.SubStore([]byte("r/"))
	limits := root.SubStore([]byte("s/"))

	b := reps.NewBatch()
	require.NoError(t, b.PutJSON([]byte("1"), record{Name: "one", Score: 1}))
	require.NoError(t, b.PutJSON([]byte("2"), record{Name: "two", Score: 2}))
	require.NoError(t, b.Write())
	require.NoError(t, limits.Put([]byte("v4/24"), []byte("{}")))

	var names []string
	err := reps.ScanJSON(nil, func() interface{} { return &record{} }, func(key []byte, v interface{}) bool {
		names = append(names, v.(*record).Name)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, names)

	n, err := root.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, reps.DeletePrefix(nil))

	n, err = root.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	keys, err := root.Keys([]byte("s/"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("s/v4/24")}, keys)
}

func TestStore_ScanJSONDecodeError(t *testing.T) {
	s := testStore(t, "j/")
	require.NoError(t, s.Put([]byte("bad"), []byte("{not json")))

	err := s.ScanJSON(nil, func() interface{} { return &record{} }, func([]byte, interface{}) bool { return true })
	assert.Error(t, err)
}
