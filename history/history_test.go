package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(storage Storage) *History {
	h := New(storage)
	h.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return h
}

func TestAddFillsTimestamp(t *testing.T) {
	h := newTestHistory(NewMemoryStorage())
	h.Add(Transaction{Hash: "0x01", Status: StatusPending})

	entries := h.List()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1_700_000_000_000, entries[0].Timestamp)
}

func TestAddPrependsNewest(t *testing.T) {
	h := newTestHistory(NewMemoryStorage())
	h.Add(Transaction{Hash: "0x01", Status: StatusPending, Timestamp: 1})
	h.Add(Transaction{Hash: "0x02", Status: StatusPending, Timestamp: 2})

	entries := h.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "0x02", entries[0].Hash)
	assert.Equal(t, "0x01", entries[1].Hash)
}

func TestAddUpdatesAndMergesData(t *testing.T) {
	h := newTestHistory(NewMemoryStorage())
	h.Add(Transaction{Hash: "0x01", Status: StatusPending, Timestamp: 10, Data: map[string]any{"method": "deposit", "amount": "1"}})
	h.Add(Transaction{Hash: "0x01", Status: StatusConfirmed, Timestamp: 99, Data: map[string]any{"blockNumber": float64(42)}})

	entries := h.List()
	require.Len(t, entries, 1)

	tx := entries[0]
	assert.Equal(t, StatusConfirmed, tx.Status)
	assert.EqualValues(t, 10, tx.Timestamp)
	assert.Equal(t, "deposit", tx.Method())
	assert.Equal(t, "1", tx.Data["amount"])
	assert.Equal(t, float64(42), tx.Data["blockNumber"])
}

func TestPendingNeverOverwritesTerminal(t *testing.T) {
	for _, status := range []Status{StatusConfirmed, StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			h := newTestHistory(NewMemoryStorage())
			h.Add(Transaction{Hash: "0x01", Status: status, Timestamp: 1})
			h.Add(Transaction{Hash: "0x01", Status: StatusPending, Data: map[string]any{"method": "late"}})

			entries := h.List()
			require.Len(t, entries, 1)
			assert.Equal(t, status, entries[0].Status)
			assert.Empty(t, entries[0].Method())
		})
	}
}

func TestTerminalMayReplaceTerminal(t *testing.T) {
	h := newTestHistory(NewMemoryStorage())
	h.Add(Transaction{Hash: "0x01", Status: StatusFailed, Timestamp: 1})
	h.Add(Transaction{Hash: "0x01", Status: StatusConfirmed})

	assert.Equal(t, StatusConfirmed, h.List()[0].Status)
}

func TestCap(t *testing.T) {
	h := newTestHistory(NewMemoryStorage())
	for i := 0; i < MaxEntries+5; i++ {
		h.Add(Transaction{Hash: fmt.Sprintf("0x%02x", i), Status: StatusConfirmed, Timestamp: int64(i + 1)})
	}

	entries := h.List()
	require.Len(t, entries, MaxEntries)
	assert.Equal(t, fmt.Sprintf("0x%02x", MaxEntries+4), entries[0].Hash)
	assert.Equal(t, "0x05", entries[MaxEntries-1].Hash)
}

func TestSorted(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.SetItem(StorageKey, `[
		{"hash":"0xa","status":"confirmed","timestamp":5},
		{"hash":"0xb","status":"pending","timestamp":30},
		{"hash":"0xc","status":"failed","timestamp":10}
	]`))

	h := newTestHistory(storage)
	sorted := h.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, []string{"0xb", "0xc", "0xa"}, []string{sorted[0].Hash, sorted[1].Hash, sorted[2].Hash})
}

func TestUnreadableHistoryIsEmpty(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.SetItem(StorageKey, "{not json"))

	h := newTestHistory(storage)
	assert.Empty(t, h.List())
	assert.NotNil(t, h.List())

	// a write after corruption starts a fresh list
	h.Add(Transaction{Hash: "0x01", Status: StatusPending})
	assert.Len(t, h.List(), 1)
}

func TestClear(t *testing.T) {
	h := newTestHistory(NewMemoryStorage())
	h.Add(Transaction{Hash: "0x01", Status: StatusPending})
	h.Clear()
	assert.Empty(t, h.List())
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	storage := NewFileStorage(path)

	_, ok, err := storage.GetItem(StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)

	h := newTestHistory(storage)
	h.Add(Transaction{Hash: "0x01", Status: StatusPending, Data: map[string]any{"method": "deposit"}})
	h.Add(Transaction{Hash: "0x01", Status: StatusConfirmed})

	// a second instance sees persisted state
	reopened := New(NewFileStorage(path))
	entries := reopened.List()
	require.Len(t, entries, 1)
	assert.Equal(t, StatusConfirmed, entries[0].Status)
	assert.Equal(t, "deposit", entries[0].Method())

	require.NoError(t, storage.SetItem("other", "value"))
	reopened.Clear()

	value, ok, err := storage.GetItem("other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStorageCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	storage := NewFileStorage(path)
	_, _, err := storage.GetItem(StorageKey)
	assert.Error(t, err)

	assert.Empty(t, New(storage).List())
}
